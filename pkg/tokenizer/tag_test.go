package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	state TagState
	span  string
}

func collectSteps(src string) []step {
	var steps []step
	tg := NewTag(src)
	for {
		state, span := tg.Next()
		steps = append(steps, step{state, span})
		if state == TagStateClose || state == TagStateIllegal {
			return steps
		}
	}
}

func TestTagSteps(t *testing.T) {
	got := collectSteps(`<C-Card Title="a &amp; b" data-x='y' n=3 hidden/>`)
	want := []step{
		{TagStateName, "c-card"},
		{TagStateAttributeName, "title"},
		{TagStateAttributeValueDouble, "a &amp; b"},
		{TagStateAttributeName, "data-x"},
		{TagStateAttributeValueSingle, "y"},
		{TagStateAttributeName, "n"},
		{TagStateAttributeValueUnquoted, "3"},
		{TagStateAttributeName, "hidden"},
		{TagStateSelfClosingMarker, "/"},
		{TagStateClose, ">"},
	}
	assert.Equal(t, want, got)
}

func TestTagTerminalStateIsSticky(t *testing.T) {
	tg := NewTag("<c-x>")
	tg.Next()
	state, _ := tg.Next()
	require.Equal(t, TagStateClose, state)

	state, span := tg.Next()
	assert.Equal(t, TagStateClose, state)
	assert.Empty(t, span)
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want TagDescriptor
	}{
		{
			name: "name only",
			src:  "<c-card>",
			want: TagDescriptor{Name: "c-card", Attributes: Attributes{}},
		},
		{
			name: "entity decoded values",
			src:  `<c-link href="/a?x=1&amp;y=2" title='&lt;b&gt;'>`,
			want: TagDescriptor{Name: "c-link", Attributes: Attributes{
				"href":  {Text: "/a?x=1&y=2"},
				"title": {Text: "<b>"},
			}},
		},
		{
			name: "boolean attributes",
			src:  "<c-box open data-flag>",
			want: TagDescriptor{Name: "c-box", Attributes: Attributes{
				"open":      True,
				"data-flag": True,
			}},
		},
		{
			name: "spaces around equals",
			src:  `<head lang = "en" >`,
			want: TagDescriptor{Name: "head", Attributes: Attributes{"lang": {Text: "en"}}},
		},
		{
			name: "self closing without space",
			src:  "<c-icon/>",
			want: TagDescriptor{Name: "c-icon", Attributes: Attributes{}, SelfClosing: true},
		},
		{
			name: "unquoted value keeps slash",
			src:  "<c-a href=/x/>",
			want: TagDescriptor{Name: "c-a", Attributes: Attributes{"href": {Text: "/x/"}}},
		},
		{
			name: "first duplicate wins",
			src:  `<c-a x="1" X="2" y y="3">`,
			want: TagDescriptor{Name: "c-a", Attributes: Attributes{
				"x": {Text: "1"},
				"y": True,
			}},
		},
		{
			name: "empty quoted value",
			src:  `<c-a v="">`,
			want: TagDescriptor{Name: "c-a", Attributes: Attributes{"v": {Text: ""}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTag(tt.src)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTagIllegal(t *testing.T) {
	inputs := []string{
		"",
		"c-card>",
		"<>",
		`<c-a x="unterminated>`,
		`<c-a x='unterminated>`,
		"<c-a <b>",
		"<c-a",
		"<c-a x=>",
		`<c-a ="v">`,
		`<c"a>`,
	}
	for _, src := range inputs {
		_, ok := ParseTag(src)
		assert.False(t, ok, "ParseTag(%q) should fail", src)
	}
}

func TestTagDescriptorRoundTrip(t *testing.T) {
	inputs := []string{
		`<c-card title="Tom &amp; Jerry" note='"quoted"' lt="&lt;" n=5 hidden>`,
		`<c-x a="line&#10;break" b='it&#39;s' />`,
		`<head data-x="&quot;&amp;&quot;">`,
	}
	for _, src := range inputs {
		first, ok := ParseTag(src)
		require.True(t, ok, src)

		second, ok := ParseTag(first.String())
		require.True(t, ok, first.String())
		assert.Equal(t, first, second)
	}
}

func TestCloseTagName(t *testing.T) {
	tests := []struct {
		raw  string
		name string
		ok   bool
	}{
		{"</c-card>", "c-card", true},
		{"</HEAD >", "head", true},
		{"</slot>", "slot", true},
		{"<c-card>", "", false},
		{"</>", "", false},
		{"</a b>", "", false},
		{"text", "", false},
	}
	for _, tt := range tests {
		name, ok := CloseTagName(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.name, name, tt.raw)
	}
}

func TestSelfClosingToOpen(t *testing.T) {
	assert.Equal(t, `<c-x a="1">`, SelfClosingToOpen(`<c-x a="1" />`))
	assert.Equal(t, "<head>", SelfClosingToOpen("<head/>"))
	assert.Equal(t, "<c-x>", SelfClosingToOpen("<c-x>"))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "true", True.String())
	assert.Equal(t, "x", Value{Text: "x"}.String())

	attrs := Attributes{"b": True, "a": {Text: "1"}}
	assert.Equal(t, []string{"a", "b"}, attrs.Names())
	assert.Equal(t, "1", attrs.Get("a"))
	assert.Equal(t, "", attrs.Get("missing"))
	v, ok := attrs.Lookup("b")
	assert.True(t, ok)
	assert.True(t, v.Bool)
}
