// Package dev provides template hot reload for development servers.
//
// A Watcher polls a template directory and reports batches of changes.
// A Reloader holds the current HTTP handler and swaps in a freshly built
// one after each batch, keeping the previous handler when a rebuild fails.
// A ReloadServer tells connected browsers to refresh once a swap succeeds,
// or shows the failure in an overlay when it does not.
//
// # Hot Reload Protocol
//
// The browser connects to /_stitch/reload via WebSocket.
// Messages are JSON-encoded:
//
//	{"type": "reload"}                // Triggers full page reload
//	{"type": "error", "error": "..."} // Shows error overlay
//	{"type": "clear"}                 // Clears error overlay
//
// InjectClient adds the browser side of the protocol to every HTML
// document, just before the closing head tag.
package dev
