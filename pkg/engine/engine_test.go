package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/vango-dev/stitch/pkg/component"
	"github.com/vango-dev/stitch/pkg/finalize"
	"github.com/vango-dev/stitch/pkg/routing"
)

const page = `<!DOCTYPE html><html><head></head><body><c-greeting name="Ada"></c-greeting></body></html>`

func greeting() component.Child {
	return child("greeting", fn("greeting", func(_ context.Context, c *component.Context) (string, error) {
		return "Hello " + c.Attr("name"), nil
	}))
}

func TestStreamDocument(t *testing.T) {
	eng := New(tree(page, "<title>T</title>", greeting()), Config{})
	rec := routing.NewRecorder()

	outcome, err := eng.Stream(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, finalize.OutcomeSuccess, outcome)

	assert.Equal(t, http.StatusOK, rec.Status())
	assert.Equal(t, finalize.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, finalize.DefaultProduct, rec.Header().Get(finalize.ProductHeader))
	assert.Equal(t,
		`<!DOCTYPE html><html><head><title>T</title></head><body><c-greeting name="Ada">Hello Ada</c-greeting></body></html>`,
		rec.Body())
	assert.True(t, rec.Ended())
}

func TestBufferWritesOnce(t *testing.T) {
	eng := New(tree(page, "<title>T</title>", greeting()), Config{Product: "garden/2"})
	rec := routing.NewRecorder()

	outcome, err := eng.Buffer(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, finalize.OutcomeSuccess, outcome)
	assert.Equal(t, 1, rec.Writes())
	assert.Equal(t, "garden/2", rec.Header().Get(finalize.ProductHeader))
	assert.Contains(t, rec.Body(), "Hello Ada")
}

func TestSingletonPassthrough(t *testing.T) {
	doc := `<html><head></head><body><head></head><document></document></body></html>`
	eng := New(tree(doc, "<meta>"), Config{})

	out, err := eng.RenderString(context.Background(), DocumentSource, nil)
	require.NoError(t, err)
	assert.Equal(t, `<html><head><meta></head><body><head></head><document></document></body></html>`, out)
}

func TestDocumentHostIsReplaced(t *testing.T) {
	eng := New(tree("<p>doc</p>", ""), Config{})
	out, err := eng.RenderString(context.Background(), "a<document></document>b", nil)
	require.NoError(t, err)
	assert.Equal(t, "a<p>doc</p>b", out)
}

func TestSelfClosingEquivalence(t *testing.T) {
	card := child("card", fn("card", func(_ context.Context, c *component.Context) (string, error) {
		return "<b>" + c.Attr("a") + "</b>", nil
	}))
	eng := New(tree("", "", card), Config{})

	selfClosed, err := eng.RenderString(context.Background(), `<c-card a="1"/>`, nil)
	require.NoError(t, err)
	explicit, err := eng.RenderString(context.Background(), `<c-card a="1"></c-card>`, nil)
	require.NoError(t, err)

	assert.Equal(t, explicit, selfClosed)
	assert.Equal(t, `<c-card a="1"><b>1</b></c-card>`, selfClosed)
}

func TestSlotFallback(t *testing.T) {
	card := child("card", static("card", "<div><slot>default</slot></div>"))
	eng := New(tree("", "", card), Config{})

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty body", `<c-card></c-card>`, `<c-card><div>default</div></c-card>`},
		{"whitespace body", "<c-card> \n </c-card>", `<c-card><div>default</div></c-card>`},
		{"self-closing", `<c-card/>`, `<c-card><div>default</div></c-card>`},
		{"content", `<c-card><i>hi</i></c-card>`, `<c-card><div><i>hi</i></div></c-card>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := eng.RenderString(context.Background(), tt.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSlotContentResolvesInEnclosingScope(t *testing.T) {
	card := static("card", "<div><slot></slot></div>",
		child("badge", static("card-badge", "CARD-BADGE")))
	eng := New(tree("", "",
		child("card", card),
		child("badge", static("root-badge", "ROOT-BADGE")),
	), Config{})

	out, err := eng.RenderString(context.Background(), `<c-card><c-badge></c-badge></c-card>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-card><div><c-badge>ROOT-BADGE</c-badge></div></c-card>`, out)
}

func TestSlotFallbackResolvesInOwnerScope(t *testing.T) {
	card := static("card", "<slot><c-badge></c-badge></slot>",
		child("badge", static("card-badge", "CARD-BADGE")))
	eng := New(tree("", "", child("card", card)), Config{})

	out, err := eng.RenderString(context.Background(), `<c-card></c-card>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-card><c-badge>CARD-BADGE</c-badge></c-card>`, out)
}

func TestNestedSameNameCapture(t *testing.T) {
	box := child("box", static("box", "[<slot></slot>]"))
	box.Recursive = true
	box.Component.Children = []component.Child{box}
	eng := New(tree("", "", box), Config{})

	out, err := eng.RenderString(context.Background(), `<c-box>a<c-box>b</c-box>c</c-box>d`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-box>[a<c-box>[b]</c-box>c]</c-box>d`, out)
}

func TestMissingCloseTag(t *testing.T) {
	eng := New(tree("", "", child("card", static("card", "T"))), Config{})

	out, err := eng.RenderString(context.Background(), `<c-card>rest`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-card>T</c-card>rest`, out)
}

func TestUnknownComponentPassthrough(t *testing.T) {
	eng := New(tree("", ""), Config{})
	src := `<c-nope x="1"></c-nope><c-bad "x><p>`
	out, err := eng.RenderString(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestDuplicateIDPassesThrough(t *testing.T) {
	var renders atomic.Int32
	card := child("card", fn("card", func(context.Context, *component.Context) (string, error) {
		renders.Add(1)
		return "C", nil
	}))
	eng := New(tree("", "", card), Config{})

	out, err := eng.RenderString(context.Background(),
		`<c-card id="x"></c-card><c-card id="x"></c-card><c-card></c-card><c-card></c-card>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-card id="x">C</c-card><c-card id="x"></c-card><c-card>C</c-card><c-card>C</c-card>`, out)
	assert.EqualValues(t, 3, renders.Load())
}

func TestPropsAreDefaults(t *testing.T) {
	c := child("tag", fn("tag", func(_ context.Context, c *component.Context) (string, error) {
		return c.Attr("color") + "/" + c.Attr("size"), nil
	}))
	c.Props = map[string]string{"color": "green", "size": "s"}
	eng := New(tree("", "", c), Config{})

	out, err := eng.RenderString(context.Background(), `<c-tag size="xl"></c-tag>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-tag size="xl">green/xl</c-tag>`, out)
}

func TestRecursiveChildAndMaxDepth(t *testing.T) {
	node := &component.Descriptor{Name: "node"}
	node.New = component.Func(func(_ context.Context, c *component.Context) (string, error) {
		n, _ := strconv.Atoi(c.Attr("n"))
		if n == 0 {
			return "leaf", nil
		}
		return fmt.Sprintf(`<c-node n="%d"></c-node>`, n-1), nil
	})
	entry := component.Child{Name: "node", Component: node, Recursive: true}
	obs := &recordingObserver{}

	eng := New(tree("", "", entry), Config{Observer: obs})
	out, err := eng.RenderString(context.Background(), `<c-node n="2"></c-node>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-node n="2"><c-node n="1"><c-node n="0">leaf</c-node></c-node></c-node>`, out)

	eng = New(tree("", "", entry), Config{Observer: obs, MaxDepth: 2})
	out, err = eng.RenderString(context.Background(), `<c-node n="5"></c-node>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-node n="5"><c-node n="4"><c-node n="3"></c-node></c-node></c-node>`, out)

	errs := obs.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrorKindMaxDepth, errs[0].Kind)
	assert.ErrorIs(t, errs[0].Err, ErrMaxDepth)
}

func TestRedirectFromHead(t *testing.T) {
	var gardens atomic.Int32
	garden := child("garden", fn("garden", func(context.Context, *component.Context) (string, error) {
		gardens.Add(1)
		return "flowers", nil
	}))
	root := component.NewRoot(
		static("document", `<!DOCTYPE html><html><head></head><body><c-garden></c-garden></body></html>`, garden),
		fn("head", redirectTo("/to/garden")),
	)
	obs := &recordingObserver{}
	eng := New(root, Config{Observer: obs})
	rec := routing.NewRecorder()
	rec.SetCookie(&http.Cookie{Name: "seen", Value: "1"})

	outcome, err := eng.Stream(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, finalize.OutcomeRedirect, outcome)
	assert.Equal(t, http.StatusFound, rec.Status())
	assert.Equal(t, "/to/garden", rec.Header().Get("Location"))
	assert.Equal(t, []string{"seen=1"}, rec.Header().Values("Set-Cookie"))
	assert.Empty(t, rec.Body())
	assert.True(t, rec.Ended())
	assert.Zero(t, gardens.Load())
	assert.Equal(t, []string{"document", "head"}, obs.Started())

	passes := obs.Passes()
	require.Len(t, passes, 1)
	assert.True(t, passes[0].Cancelled)
	assert.Equal(t, finalize.OutcomeRedirect, passes[0].Outcome)
}

func TestRedirectDiscardsBufferedOutput(t *testing.T) {
	eng := New(tree(`<p>before</p><c-go></c-go><p>after</p>`, "",
		child("go", fn("go", redirectTo("/elsewhere")))), Config{})
	rec := routing.NewRecorder()

	outcome, err := eng.Buffer(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, finalize.OutcomeRedirect, outcome)
	assert.Empty(t, rec.Body())
	assert.Equal(t, "/elsewhere", rec.Header().Get("Location"))
}

func TestNotFoundDelegates(t *testing.T) {
	eng := New(tree(`<c-missing></c-missing>`, "", child("missing", fn("missing",
		func(_ context.Context, c *component.Context) (string, error) {
			c.NotFound()
			return "", nil
		}))), Config{})
	rec := routing.NewRecorder()

	outcome, err := eng.Stream(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, finalize.OutcomeNotFound, outcome)
	assert.True(t, rec.Delegated())
	assert.Zero(t, rec.Status())
	assert.Empty(t, rec.Body())
}

func TestLateRedirectIsReported(t *testing.T) {
	doc := `<html><head></head><body><c-late></c-late><p>tail</p></body></html>`
	obs := &recordingObserver{}
	eng := New(tree(doc, "<title>x</title>", child("late", fn("late", redirectTo("/late")))),
		Config{Observer: obs})
	rec := routing.NewRecorder()

	outcome, err := eng.Stream(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, finalize.OutcomeSuccess, outcome)
	assert.Equal(t, http.StatusOK, rec.Status())
	assert.NotContains(t, rec.Body(), "tail")
	assert.True(t, rec.Ended())

	errs := obs.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrorKindLateEffect, errs[0].Kind)
	assert.ErrorIs(t, errs[0].Err, ErrRedirectAfterFlush)
}

func TestLateCookieIsReported(t *testing.T) {
	doc := `<html><head></head><body><c-cookie></c-cookie></body></html>`
	obs := &recordingObserver{}
	eng := New(tree(doc, "", child("cookie", fn("cookie",
		func(_ context.Context, c *component.Context) (string, error) {
			c.SetCookie(&http.Cookie{Name: "late", Value: "1"})
			return "ok", nil
		}))), Config{Observer: obs})
	rec := routing.NewRecorder()

	_, err := eng.Stream(context.Background(), rec)
	require.NoError(t, err)
	assert.Contains(t, rec.Body(), "ok")
	assert.Empty(t, rec.Header().Values("Set-Cookie"))

	errs := obs.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0].Err, ErrCookieAfterFlush)
}

func TestCookiesBeforeFlush(t *testing.T) {
	head := fn("head", func(_ context.Context, c *component.Context) (string, error) {
		c.SetCookie(&http.Cookie{Name: "theme", Value: "dark"})
		return "", nil
	})
	eng := New(component.NewRoot(static("document", "<head></head>"), head), Config{})
	rec := routing.NewRecorder()

	_, err := eng.Stream(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"theme=dark"}, rec.Header().Values("Set-Cookie"))
}

func TestMissingRoot(t *testing.T) {
	obs := &recordingObserver{}
	eng := New(component.NewRoot(static("document", "x"), nil), Config{Observer: obs})
	rec := routing.NewRecorder()

	_, err := eng.Stream(context.Background(), rec)
	assert.ErrorIs(t, err, ErrMissingRoot)
	assert.Zero(t, rec.Status())
	assert.Empty(t, rec.Body())
	assert.False(t, rec.Ended())

	errs := obs.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrorKindMissingRoot, errs[0].Kind)
}

func TestPullDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	slow := child("slow", fn("slow", func(context.Context, *component.Context) (string, error) {
		<-release
		return "done", nil
	}))
	eng := New(tree("", "", slow), Config{})
	p, err := eng.NewPass(context.Background(), `<c-slow></c-slow>`, nil)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, p.State())

	chunk, err := p.Pull()
	require.NoError(t, err)
	assert.Empty(t, chunk)
	assert.Equal(t, StateAwaitingRender, p.State())

	chunk, err = p.Pull()
	require.NoError(t, err)
	assert.Empty(t, chunk)

	select {
	case <-p.Ready():
		t.Fatal("ready before the render finished")
	default:
	}

	close(release)
	<-p.Ready()
	chunk, err = p.Pull()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, `<c-slow>done</c-slow>`, chunk)
	assert.Equal(t, StateFinalizing, p.State())
}

func TestContextCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	slow := child("slow", fn("slow", func(context.Context, *component.Context) (string, error) {
		close(started)
		<-release
		return "never", nil
	}))
	eng := New(tree(`<head></head><c-slow></c-slow>`, "", slow), Config{})
	rec := routing.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := eng.Stream(ctx, rec)
		done <- err
	}()

	<-started
	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, rec.Body(), "never")
	assert.False(t, rec.Ended())
}

type TreeError struct{ Species string }

func (e *TreeError) Error() string { return "tree <" + e.Species + "> fell over" }

func TestComponentErrorDiagnostic(t *testing.T) {
	broken := child("broken", fn("broken", func(context.Context, *component.Context) (string, error) {
		return "", &TreeError{Species: "oak"}
	}))
	obs := &recordingObserver{}
	eng := New(tree("", "", broken), Config{Observer: obs})
	rec := routing.NewRecorder()
	rec.Agent = "garden-bot/1.0"

	out, err := eng.RenderString(context.Background(), `<c-broken></c-broken>`, rec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<c-broken><div class="stitch-error"`))
	assert.Contains(t, out, "TreeError")
	assert.Contains(t, out, "tree &lt;oak&gt; fell over")
	assert.Contains(t, out, "garden-bot/1.0")
	assert.NotContains(t, out, "<oak>")

	errs := obs.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrorKindComponent, errs[0].Kind)
	var te *TreeError
	assert.True(t, errors.As(errs[0].Err, &te))
}

func TestComponentErrorRelease(t *testing.T) {
	broken := static("broken", "")
	broken.New = func(*component.Context) (any, error) { return nil, errors.New("boom") }
	withTemplate := static("fancy", "")
	withTemplate.New = broken.New
	withTemplate.ErrorTemplate = func(c *component.Context, err error) string {
		return "<p>" + c.Name() + " unavailable</p>"
	}
	eng := New(tree("", "", child("broken", broken), child("fancy", withTemplate)), Config{Release: true})

	out, err := eng.RenderString(context.Background(), `<c-broken></c-broken><c-fancy></c-fancy>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-broken></c-broken><c-fancy><p>fancy unavailable</p></c-fancy>`, out)
}

func TestDocumentErrorRendersEmpty(t *testing.T) {
	doc := static("document", "")
	doc.New = component.Func(func(context.Context, *component.Context) (string, error) {
		return "", &TreeError{Species: "elm"}
	})
	eng := New(component.NewRoot(doc, static("head", "")), Config{})

	out, err := eng.RenderString(context.Background(), DocumentSource, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPanicIsRecovered(t *testing.T) {
	boom := child("boom", fn("boom", func(context.Context, *component.Context) (string, error) {
		panic("kaboom")
	}))
	eng := New(tree("", "", boom), Config{})

	out, err := eng.RenderString(context.Background(), `<c-boom></c-boom>after`, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "kaboom")
	assert.True(t, strings.HasSuffix(out, "</c-boom>after"))
}

func TestInstanceWithoutTemplate(t *testing.T) {
	bare := static("bare", "")
	bare.New = func(*component.Context) (any, error) { return struct{}{}, nil }
	obs := &recordingObserver{}
	eng := New(tree("", "", child("bare", bare)), Config{Observer: obs})

	out, err := eng.RenderString(context.Background(), `<c-bare></c-bare>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-bare></c-bare>`, out)

	errs := obs.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrorKindNoTemplate, errs[0].Kind)
	assert.ErrorIs(t, errs[0].Err, ErrNoTemplate)
}

type loader struct{ c *component.Context }

func (l *loader) Render(context.Context) (any, error) {
	return map[string]string{"who": l.c.Attr("who")}, nil
}

func (l *loader) Templ(_ context.Context, data any) (templ.Component, error) {
	who := data.(map[string]string)["who"]
	return templ.Raw("<em>" + who + "</em>"), nil
}

func TestRenderAndTemplCapabilities(t *testing.T) {
	d := &component.Descriptor{Name: "loader", New: func(c *component.Context) (any, error) {
		return &loader{c: c}, nil
	}}
	eng := New(tree("", "", child("loader", d)), Config{})

	out, err := eng.RenderString(context.Background(), `<c-loader who="Grace"/>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-loader who="Grace"><em>Grace</em></c-loader>`, out)
}

// failingLoader fails in Render; its Template must never run.
type failingLoader struct {
	templated *atomic.Bool
	panics    bool
}

func (l *failingLoader) Render(context.Context) (any, error) {
	if l.panics {
		panic(&TreeError{Species: "ash"})
	}
	return nil, &TreeError{Species: "birch"}
}

func (l *failingLoader) Template(context.Context, any) (string, error) {
	l.templated.Store(true)
	return "unreachable", nil
}

func TestRenderErrorDiagnostic(t *testing.T) {
	var templated atomic.Bool
	newLoader := func(*component.Context) (any, error) { return &failingLoader{templated: &templated}, nil }
	obs := &recordingObserver{}
	d := &component.Descriptor{Name: "fl", New: newLoader}
	eng := New(tree("", "", child("fl", d)), Config{Observer: obs})

	out, err := eng.RenderString(context.Background(), `<c-fl></c-fl>`, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<c-fl><div class="stitch-error"`))
	assert.Contains(t, out, "TreeError")
	assert.Contains(t, out, "tree &lt;birch&gt; fell over")
	assert.NotContains(t, out, "unreachable")
	assert.False(t, templated.Load())

	errs := obs.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrorKindComponent, errs[0].Kind)
	var te *TreeError
	require.True(t, errors.As(errs[0].Err, &te))
	assert.Equal(t, "birch", te.Species)

	// The same constructor backing the document yields empty markup.
	root := component.NewRoot(&component.Descriptor{Name: "document", New: newLoader}, static("head", ""))
	out, err = New(root, Config{}).RenderString(context.Background(), DocumentSource, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.False(t, templated.Load())
}

func TestRenderPanicDiagnostic(t *testing.T) {
	var templated atomic.Bool
	d := &component.Descriptor{Name: "fl", New: func(*component.Context) (any, error) {
		return &failingLoader{templated: &templated, panics: true}, nil
	}}
	eng := New(tree("", "", child("fl", d)), Config{})

	out, err := eng.RenderString(context.Background(), `<c-fl/>after`, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "TreeError")
	assert.Contains(t, out, "tree &lt;ash&gt; fell over")
	assert.True(t, strings.HasSuffix(out, "</c-fl>after"))
	assert.False(t, templated.Load())
}

type brokenTempl struct{}

func (brokenTempl) Templ(context.Context, any) (templ.Component, error) {
	return nil, &TreeError{Species: "willow"}
}

func TestTemplErrorDiagnostic(t *testing.T) {
	d := &component.Descriptor{Name: "bt", New: func(*component.Context) (any, error) { return brokenTempl{}, nil }}
	obs := &recordingObserver{}
	eng := New(tree("", "", child("bt", d)), Config{Observer: obs})

	out, err := eng.RenderString(context.Background(), `<c-bt></c-bt>`, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "TreeError")
	assert.Contains(t, out, "tree &lt;willow&gt; fell over")
	require.Len(t, obs.Errors(), 1)

	out, err = New(tree("", "", child("bt", d)), Config{Release: true}).
		RenderString(context.Background(), `<c-bt></c-bt>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-bt></c-bt>`, out)
}

// pricer passes its Render result to Template.
type pricer struct{ c *component.Context }

func (p *pricer) Render(context.Context) (any, error) {
	return component.Data{"sku": p.c.Attr("sku"), "cents": 1250}, nil
}

func (p *pricer) Template(_ context.Context, data any) (string, error) {
	d := data.(component.Data)
	return fmt.Sprintf("%s: %d.%02d", d["sku"], d["cents"].(int)/100, d["cents"].(int)%100), nil
}

func TestRenderDataReachesTemplate(t *testing.T) {
	d := &component.Descriptor{Name: "price", New: func(c *component.Context) (any, error) { return &pricer{c: c}, nil }}
	eng := New(tree("", "", child("price", d)), Config{})

	out, err := eng.RenderString(context.Background(), `<c-price sku="tea"/>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-price sku="tea">tea: 12.50</c-price>`, out)
}

type panickyObserver struct{ NopObserver }

func (panickyObserver) RenderStart(RenderEvent) { panic("observer") }

func TestObserverPanicIsRecovered(t *testing.T) {
	eng := New(tree("", "", greeting()), Config{Observer: panickyObserver{}})
	out, err := eng.RenderString(context.Background(), `<c-greeting name="x"/>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<c-greeting name="x">Hello x</c-greeting>`, out)
}

func TestPassIDsAreUnique(t *testing.T) {
	eng := New(tree("", ""), Config{})
	a, err := eng.NewPass(context.Background(), "", nil)
	require.NoError(t, err)
	b, err := eng.NewPass(context.Background(), "", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
}
