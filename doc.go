// Package stitch serves HTML documents assembled from components.
//
// A document is plain markup in which custom tags (<c-card>, <c-nav>)
// stand for components. Each component renders its own markup, which may
// contain further component tags, and output streams to the client as soon
// as the page shell is complete.
//
// App bundles the pieces a site needs into one http.Handler:
//
//   - document rendering (pkg/server) as a catch-all route
//   - static files served ahead of rendering
//   - interactive re-renders over a websocket (pkg/live)
//   - Prometheus metrics and OpenTelemetry tracing (pkg/middleware)
//
// Create an App from a component tree:
//
//	root := component.NewRoot(document, head, component.Child{Name: "card", Component: card})
//	app := stitch.New(root, stitch.Config{
//	    Static:  stitch.StaticConfig{Dir: "public", Prefix: "/assets"},
//	    Live:    true,
//	    Metrics: true,
//	})
//	http.ListenAndServe(":8080", app)
package stitch
