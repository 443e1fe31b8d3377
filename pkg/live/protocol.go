package live

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vango-dev/stitch/pkg/engine"
)

// Target names one component to re-render.
type Target struct {
	ID     string   `msgpack:"id"`
	Source string   `msgpack:"source"`
	Scope  []string `msgpack:"scope,omitempty"`
}

// Request is a client frame.
type Request struct {
	Seq     uint64   `msgpack:"seq"`
	Targets []Target `msgpack:"targets"`
	Changed []string `msgpack:"changed,omitempty"`

	// Path is the URL path of the page the targets live on.
	Path string `msgpack:"path,omitempty"`
}

// Response is a server frame.
type Response struct {
	Seq       uint64              `msgpack:"seq"`
	Fragments []engine.Fragment   `msgpack:"fragments,omitempty"`
	Skipped   []string            `msgpack:"skipped,omitempty"`
	Watches   map[string][]string `msgpack:"watches,omitempty"`
	Redirect  string              `msgpack:"redirect,omitempty"`
	NotFound  bool                `msgpack:"not_found,omitempty"`
	Error     string              `msgpack:"error,omitempty"`
}

// EncodeRequest encodes a client frame.
func EncodeRequest(r *Request) ([]byte, error) {
	return msgpack.Marshal(r)
}

// DecodeRequest decodes a client frame.
func DecodeRequest(b []byte) (*Request, error) {
	var r Request
	if err := msgpack.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// EncodeResponse encodes a server frame.
func EncodeResponse(r *Response) ([]byte, error) {
	return msgpack.Marshal(r)
}

// DecodeResponse decodes a server frame.
func DecodeResponse(b []byte) (*Response, error) {
	var r Response
	if err := msgpack.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
