package tokenizer

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// TagState is a tag tokenizer state.
type TagState uint8

const (
	TagStateName TagState = iota
	TagStateAttributeName
	TagStateAttributeValueDouble
	TagStateAttributeValueSingle
	TagStateAttributeValueUnquoted
	TagStateSelfClosingMarker
	TagStateClose
	TagStateIllegal
)

// Value is an attribute value. Attributes written without "=" are boolean:
// Bool is set and Text is empty.
type Value struct {
	Text string
	Bool bool
}

// True is the value of a boolean attribute.
var True = Value{Bool: true}

// String returns the text of v, or "true" for a boolean attribute.
func (v Value) String() string {
	if v.Bool {
		return "true"
	}
	return v.Text
}

// Attributes maps lower-cased attribute names to decoded values.
type Attributes map[string]Value

// Get returns the text value of the named attribute.
func (a Attributes) Get(name string) string {
	return a[name].Text
}

// Has reports whether the attribute is present.
func (a Attributes) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Lookup returns the attribute value and whether it is present.
func (a Attributes) Lookup(name string) (Value, bool) {
	v, ok := a[name]
	return v, ok
}

// Names returns the attribute names in sorted order.
func (a Attributes) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy of a.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// TagDescriptor is a parsed opening tag.
type TagDescriptor struct {
	Name        string
	Attributes  Attributes
	SelfClosing bool
}

// String serializes the tag with escaped attribute values and sorted
// attribute names.
func (t TagDescriptor) String() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(t.Name)
	for _, name := range t.Attributes.Names() {
		v := t.Attributes[name]
		b.WriteByte(' ')
		b.WriteString(name)
		if v.Bool {
			continue
		}
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(v.Text))
		b.WriteByte('"')
	}
	if t.SelfClosing {
		b.WriteString(" /")
	}
	b.WriteByte('>')
	return b.String()
}

// Tag scans a single tag string from '<' to '>'.
type Tag struct {
	src   string
	pos   int
	state TagState
	done  bool
}

// NewTag returns a tag tokenizer for src.
func NewTag(src string) *Tag {
	t := &Tag{}
	t.Reset(src)
	return t
}

// Reset re-seeds the tokenizer with a new tag string.
func (t *Tag) Reset(src string) {
	t.src = src
	t.pos = 0
	t.state = TagStateName
	t.done = false
}

// Next returns the next (state, span) pair. Value spans are raw; decoding
// is left to the caller. After TagStateClose or TagStateIllegal has been
// returned, Next keeps returning that state with an empty span.
func (t *Tag) Next() (TagState, string) {
	if t.done {
		return t.state, ""
	}

	switch t.state {
	case TagStateName:
		if t.pos >= len(t.src) || t.src[t.pos] != '<' {
			return t.illegal()
		}
		t.pos++
		start := t.pos
		for t.pos < len(t.src) && !isBoundary(t.src[t.pos]) {
			if isForbiddenNameByte(t.src[t.pos]) {
				return t.illegal()
			}
			t.pos++
		}
		if t.pos == start {
			return t.illegal()
		}
		name := strings.ToLower(t.src[start:t.pos])
		t.state = t.seek()
		return TagStateName, name

	case TagStateAttributeName:
		start := t.pos
		for t.pos < len(t.src) {
			c := t.src[t.pos]
			if isSpace(c) || c == '=' || c == '>' || c == '/' {
				break
			}
			if isForbiddenNameByte(c) {
				return t.illegal()
			}
			t.pos++
		}
		name := strings.ToLower(t.src[start:t.pos])
		t.skipSpace()
		if t.pos < len(t.src) && t.src[t.pos] == '=' {
			t.pos++
			t.skipSpace()
			t.state = t.valueState()
		} else {
			t.state = t.seek()
		}
		return TagStateAttributeName, name

	case TagStateAttributeValueDouble, TagStateAttributeValueSingle:
		state := t.state
		quote := t.src[t.pos]
		end := strings.IndexByte(t.src[t.pos+1:], quote)
		if end < 0 {
			return t.illegal()
		}
		value := t.src[t.pos+1 : t.pos+1+end]
		t.pos += end + 2
		t.state = t.seek()
		return state, value

	case TagStateAttributeValueUnquoted:
		start := t.pos
		for t.pos < len(t.src) && !isSpace(t.src[t.pos]) && t.src[t.pos] != '>' {
			if isForbiddenNameByte(t.src[t.pos]) {
				return t.illegal()
			}
			t.pos++
		}
		value := t.src[start:t.pos]
		t.state = t.seek()
		return TagStateAttributeValueUnquoted, value

	case TagStateSelfClosingMarker:
		t.pos++
		t.state = TagStateClose
		return TagStateSelfClosingMarker, "/"

	case TagStateClose:
		t.pos++
		t.done = true
		return TagStateClose, ">"
	}

	return t.illegal()
}

func (t *Tag) illegal() (TagState, string) {
	rest := ""
	if t.pos < len(t.src) {
		rest = t.src[t.pos:]
	}
	t.state = TagStateIllegal
	t.done = true
	return TagStateIllegal, rest
}

// seek skips whitespace and stray slashes and picks the state of the next
// construct.
func (t *Tag) seek() TagState {
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if isSpace(c) || (c == '/' && !t.peekIs(t.pos+1, '>')) {
			t.pos++
			continue
		}
		break
	}
	if t.pos >= len(t.src) {
		return TagStateIllegal
	}
	switch t.src[t.pos] {
	case '>':
		return TagStateClose
	case '/':
		return TagStateSelfClosingMarker
	case '<', '=', '"', '\'':
		return TagStateIllegal
	default:
		return TagStateAttributeName
	}
}

func (t *Tag) valueState() TagState {
	if t.pos >= len(t.src) {
		return TagStateIllegal
	}
	switch t.src[t.pos] {
	case '"':
		return TagStateAttributeValueDouble
	case '\'':
		return TagStateAttributeValueSingle
	case '>':
		return TagStateIllegal
	default:
		return TagStateAttributeValueUnquoted
	}
}

func (t *Tag) skipSpace() {
	for t.pos < len(t.src) && isSpace(t.src[t.pos]) {
		t.pos++
	}
}

func (t *Tag) peekIs(i int, c byte) bool {
	return i < len(t.src) && t.src[i] == c
}

func isForbiddenNameByte(c byte) bool {
	return c == '<' || c == '"' || c == '\''
}

// ParseTag parses raw into a TagDescriptor. It returns false when the tag is
// malformed and must be treated as opaque content.
func ParseTag(raw string) (TagDescriptor, bool) {
	desc := TagDescriptor{Attributes: Attributes{}}
	t := NewTag(raw)

	pending := ""
	flush := func() {
		if pending != "" && !desc.Attributes.Has(pending) {
			desc.Attributes[pending] = True
		}
		pending = ""
	}

	for {
		state, span := t.Next()
		switch state {
		case TagStateName:
			desc.Name = span
		case TagStateAttributeName:
			flush()
			pending = span
		case TagStateAttributeValueDouble, TagStateAttributeValueSingle, TagStateAttributeValueUnquoted:
			if !desc.Attributes.Has(pending) {
				desc.Attributes[pending] = Value{Text: html.UnescapeString(span)}
			}
			pending = ""
		case TagStateSelfClosingMarker:
			desc.SelfClosing = true
		case TagStateClose:
			flush()
			return desc, true
		default:
			return TagDescriptor{}, false
		}
	}
}

// CloseTagName returns the lower-cased element name of a closing tag such
// as "</c-card>" or "</head >".
func CloseTagName(raw string) (string, bool) {
	if len(raw) < 4 || raw[0] != '<' || raw[1] != '/' || raw[len(raw)-1] != '>' {
		return "", false
	}
	name := strings.TrimRightFunc(raw[2:len(raw)-1], func(r rune) bool {
		return r < 0x80 && isSpace(byte(r))
	})
	if name == "" || strings.ContainsFunc(name, func(r rune) bool {
		return r < 0x80 && (isBoundary(byte(r)) || isForbiddenNameByte(byte(r)))
	}) {
		return "", false
	}
	return strings.ToLower(name), true
}

// SelfClosingToOpen rewrites "<c-x a />" into "<c-x a>". Tags that do not
// end in "/>" are returned unchanged.
func SelfClosingToOpen(raw string) string {
	if !strings.HasSuffix(raw, "/>") {
		return raw
	}
	return strings.TrimRightFunc(raw[:len(raw)-2], func(r rune) bool {
		return r < 0x80 && isSpace(byte(r))
	}) + ">"
}
