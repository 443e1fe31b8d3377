package stitch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/stitch/pkg/component"
	"github.com/vango-dev/stitch/pkg/live"
	"github.com/vango-dev/stitch/pkg/server"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRoot() *component.Descriptor {
	greet := component.Child{
		Name: "greet",
		Component: &component.Descriptor{Name: "greet", New: component.Func(
			func(_ context.Context, c *component.Context) (string, error) {
				return "hello " + c.Attr("who"), nil
			})},
		Watch: []string{"who"},
	}
	gone := component.Child{
		Name: "gone",
		Component: &component.Descriptor{Name: "gone", New: component.Func(
			func(_ context.Context, c *component.Context) (string, error) {
				c.NotFound()
				return "", nil
			})},
	}
	doc := &component.Descriptor{
		Name: "document",
		New: component.Func(func(_ context.Context, c *component.Context) (string, error) {
			if strings.HasPrefix(c.Path(), "/missing") {
				return `<head></head><c-gone></c-gone>`, nil
			}
			return `<html><head></head><body><c-greet who="web"></c-greet></body></html>`, nil
		}),
		Children: []component.Child{greet, gone},
	}
	head := &component.Descriptor{Name: "head", New: component.Static("<title>app</title>")}
	return component.NewRoot(doc, head, greet)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAppRendersDocuments(t *testing.T) {
	app := New(testRoot(), Config{Logger: testLogger()})

	rec := get(t, app, "/anything")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		`<html><head><title>app</title></head><body><c-greet who="web">hello web</c-greet></body></html>`,
		rec.Body.String())
}

func TestAppServesStaticBeforeRendering(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "css/app.a1b2c3d4.css", []byte("body{}"), 0o644))

	app := New(testRoot(), Config{
		Logger: testLogger(),
		Static: StaticConfig{FS: fs, Prefix: "/assets", CacheControl: CacheControlProduction},
	})

	rec := get(t, app, "/assets/css/app.a1b2c3d4.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"))

	rec = get(t, app, "/assets/css/missing.css")
	assert.Contains(t, rec.Body.String(), "hello web", "unknown assets fall through to rendering")
}

func TestAppDelegatesNotFound(t *testing.T) {
	app := New(testRoot(), Config{Logger: testLogger(), Server: server.Config{Mode: server.ModeBuffer}})

	rec := get(t, app, "/missing/page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<head>")
}

func TestAppMetrics(t *testing.T) {
	app := New(testRoot(), Config{Logger: testLogger(), Metrics: true, MetricsNamespace: "shop"})
	require.NotNil(t, app.Registry())

	get(t, app, "/")
	rec := get(t, app, DefaultMetricsPath)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `shop_passes_total{interactive="false",outcome="success"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAppMetricsDisabled(t *testing.T) {
	app := New(testRoot(), Config{Logger: testLogger()})
	assert.Nil(t, app.Registry())

	rec := get(t, app, DefaultMetricsPath)
	assert.Contains(t, rec.Body.String(), "hello web", "without metrics the path is just another page")
}

func TestAppTracingDoesNotChangeOutput(t *testing.T) {
	app := New(testRoot(), Config{Logger: testLogger(), TracerProvider: noop.NewTracerProvider()})
	assert.Contains(t, get(t, app, "/").Body.String(), "hello web")
}

func TestAppLiveSocket(t *testing.T) {
	app := New(testRoot(), Config{Logger: testLogger(), Live: true})
	srv := httptest.NewServer(app)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+DefaultLivePath, nil)
	require.NoError(t, err)
	defer conn.Close()

	frame, err := live.EncodeRequest(&live.Request{Seq: 4, Targets: []live.Target{
		{ID: "g", Source: `<c-greet id="g" who="socket"></c-greet>`},
	}})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame))

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	resp, err := live.DecodeResponse(msg)
	require.NoError(t, err)
	require.Len(t, resp.Fragments, 1)
	assert.Equal(t, `<c-greet id="g" who="socket">hello socket</c-greet>`, resp.Fragments[0].Markup)
}

func TestAppRouterRoutesTakePrecedence(t *testing.T) {
	app := New(testRoot(), Config{Logger: testLogger()})
	app.Router().Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	assert.Equal(t, "ok", get(t, app, "/healthz").Body.String())
	assert.Contains(t, get(t, app, "/other").Body.String(), "hello web")
}
