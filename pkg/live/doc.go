// Package live serves interactive re-renders over a WebSocket.
//
// The client sends a Request naming the components to re-render, by host
// markup and id, and optionally the state keys that changed. The server
// runs one interactive pass per request and answers with a Response
// carrying the re-rendered fragments, or a redirect. Frames are binary
// msgpack messages.
//
// Watch keys reported by earlier responses are remembered per connection:
// when a request lists changed keys, only targets watching one of them (or
// whose watch keys are not known yet) are rendered.
package live
