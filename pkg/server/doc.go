// Package server adapts the rendering engine to net/http.
//
// Each request gets a Context, the routing context of one pass. It reads
// request cookies, applies the cookie policy to cookies set by components,
// validates redirect targets and writes the response through an
// http.ResponseWriter, flushing after every chunk when the writer supports
// it.
//
// Handler serves a document for every request. Used as middleware it
// delegates requests that a component declared not found to the next
// handler:
//
//	r := chi.NewRouter()
//	r.Use(server.NewHandler(eng, server.Config{}).Middleware)
package server
