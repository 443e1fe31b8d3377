package filecomp

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/stitch/pkg/component"
	"github.com/vango-dev/stitch/pkg/engine"
	"github.com/vango-dev/stitch/pkg/routing"
)

func memSource(t *testing.T, files map[string]string) FSSource {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(body), 0o644))
	}
	return FSSource{FS: fs}
}

var site = map[string]string{
	"document.html":      `<html><head></head><body><c-cards-product title="Tea &amp; cake" id="p1">Fresh.</c-cards-product></body></html>`,
	"head.html":          `<title>Shop</title>`,
	"cards/product.html": `<h2>{{.Attr "title"}}</h2><slot>No description.</slot><c-price></c-price>`,
	"price.html":         `<b>{{.Cookie "currency"}}4</b>`,
	"notes.txt":          `ignored`,
}

func TestLoadAndRender(t *testing.T) {
	root, err := Load(context.Background(), memSource(t, site), Options{})
	require.NoError(t, err)
	require.NoError(t, component.Validate(root))

	rec := routing.NewRecorder()
	rec.RequestCookies["currency"] = "€"
	out, err := engine.New(root, engine.Config{}).RenderString(context.Background(), engine.DocumentSource, rec)
	require.NoError(t, err)
	assert.Equal(t,
		`<html><head><title>Shop</title></head><body>`+
			`<c-cards-product title="Tea &amp; cake" id="p1"><h2>Tea &amp; cake</h2>Fresh.<c-price><b>€4</b></c-price></c-cards-product>`+
			`</body></html>`,
		out)
}

func TestLoadReportsAllProblems(t *testing.T) {
	_, err := Load(context.Background(), memSource(t, map[string]string{
		"a.html":        `{{.Attr`,
		"b c.html":      `x`,
		"document.html": `ok`,
	}), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.html")
	assert.True(t, errors.Is(err, ErrInvalidName))
}

func TestLoadWithoutHeadFailsValidation(t *testing.T) {
	root, err := Load(context.Background(), memSource(t, map[string]string{"document.html": "x"}), Options{})
	require.NoError(t, err)
	assert.ErrorIs(t, component.Validate(root), component.ErrMissingHead)
}

func TestComponentName(t *testing.T) {
	name, err := ComponentName("cards/Product.html")
	require.NoError(t, err)
	assert.Equal(t, "cards-product", name)

	_, err = ComponentName(".html")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestExtraFuncs(t *testing.T) {
	src := memSource(t, map[string]string{
		"document.html": `<c-shout word="hi"></c-shout>`,
		"head.html":     ``,
		"shout.html":    `{{upper (.Attr "word")}}`,
	})
	root, err := Load(context.Background(), src, Options{Funcs: map[string]any{"upper": strings.ToUpper}})
	require.NoError(t, err)

	out, err := engine.New(root, engine.Config{}).RenderString(context.Background(), engine.DocumentSource, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-shout word="hi">HI</c-shout>`, out)
}

func TestScriptEscapesCloserInAnyCase(t *testing.T) {
	src := memSource(t, map[string]string{
		"document.html": `<c-inline js="&lt;/SCRIPT&gt;&lt;b&gt;x&lt;/b&gt;"></c-inline>`,
		"head.html":     ``,
		"inline.html":   `{{.Script (.Attr "js")}}`,
	})
	root, err := Load(context.Background(), src, Options{})
	require.NoError(t, err)

	out, err := engine.New(root, engine.Config{}).RenderString(context.Background(), engine.DocumentSource, nil)
	require.NoError(t, err)
	assert.Equal(t,
		`<c-inline js="&lt;/SCRIPT&gt;&lt;b&gt;x&lt;/b&gt;"><script><\/SCRIPT><b>x</b></script></c-inline>`,
		out)
}

type fakeS3 struct {
	objects map[string]string
	pages   [][]string
	gets    []string
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := 0
	if in.ContinuationToken != nil {
		page = 1
	}
	out := &s3.ListObjectsV2Output{}
	for _, k := range f.pages[page] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if page+1 < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String("next")
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.gets = append(f.gets, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Source(t *testing.T) {
	client := &fakeS3{
		objects: map[string]string{
			"tpl/document.html": "<c-hello></c-hello>",
			"tpl/head.html":     "",
			"tpl/hello.html":    "hello",
			"tpl/readme.md":     "skip",
		},
		pages: [][]string{
			{"tpl/document.html", "tpl/readme.md"},
			{"tpl/head.html", "tpl/hello.html"},
		},
	}
	src := S3Source{Client: client, Bucket: "site", Prefix: "tpl/"}

	files, err := src.Files(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.NotContains(t, client.gets, "tpl/readme.md")

	root, err := Load(context.Background(), src, Options{})
	require.NoError(t, err)
	out, err := engine.New(root, engine.Config{}).RenderString(context.Background(), engine.DocumentSource, nil)
	require.NoError(t, err)
	assert.Equal(t, "<c-hello>hello</c-hello>", out)
}

func TestS3SourceSizeLimit(t *testing.T) {
	client := &fakeS3{
		objects: map[string]string{"big.html": strings.Repeat("x", 11)},
		pages:   [][]string{{"big.html"}},
	}
	_, err := S3Source{Client: client, Bucket: "b", MaxSize: 10}.Files(context.Background())
	assert.ErrorContains(t, err, "exceeds 10 bytes")
}

func TestErrorTemplateInRelease(t *testing.T) {
	src := memSource(t, map[string]string{
		"document.html": `<c-broken></c-broken>`,
		"head.html":     ``,
		"broken.html":   `{{template "missing"}}`,
		"_error.html":   `<em>{{.Name}} unavailable</em>`,
	})
	root, err := Load(context.Background(), src, Options{ErrorTemplate: "_error.html"})
	require.NoError(t, err)
	assert.Nil(t, root.Child("_error"), "error template is not a component")

	out, err := engine.New(root, engine.Config{Release: true}).RenderString(context.Background(), engine.DocumentSource, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-broken><em>broken unavailable</em></c-broken>`, out)
}

func TestMissingErrorTemplate(t *testing.T) {
	_, err := Load(context.Background(), memSource(t, site), Options{ErrorTemplate: "nope.html"})
	assert.ErrorContains(t, err, "nope.html")
}

func TestTemplateEffects(t *testing.T) {
	src := memSource(t, map[string]string{
		"document.html": `<head></head><c-gate></c-gate>`,
		"head.html":     `{{.SetCookie "seen" "1"}}`,
		"gate.html":     `{{if eq .Path "/private"}}{{.NotFound}}{{else}}open{{end}}`,
	})
	root, err := Load(context.Background(), src, Options{})
	require.NoError(t, err)
	eng := engine.New(root, engine.Config{})

	rec := routing.NewRecorder()
	rec.URLPath = "/private"
	outcome, err := eng.Buffer(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, outcome.Cancels())
	assert.True(t, rec.Delegated())

	rec = routing.NewRecorder()
	rec.URLPath = "/"
	_, err = eng.Buffer(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "<head></head><c-gate>open</c-gate>", rec.Body())
	assert.Equal(t, []string{"seen=1"}, rec.Header().Values("Set-Cookie"))
}
