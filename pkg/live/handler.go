package live

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/stitch/pkg/engine"
	"github.com/vango-dev/stitch/pkg/routing"
)

// Handler upgrades requests to WebSocket connections serving re-renders.
type Handler struct {
	engine   *engine.Engine
	config   Config
	upgrader websocket.Upgrader
}

// NewHandler returns a Handler.
func NewHandler(eng *engine.Engine, cfg Config) *Handler {
	cfg = cfg.withDefaults()
	return &Handler{
		engine: eng,
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered the request.
		h.config.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &connection{
		handler: h,
		conn:    conn,
		request: r,
		watches: map[string][]string{},
		logger:  h.config.Logger.With("conn", uuid.NewString()),
	}
	c.serve(r.Context())
}

// connection is one client socket.
type connection struct {
	handler *Handler
	conn    *websocket.Conn
	request *http.Request
	watches map[string][]string
	logger  *slog.Logger
}

func (c *connection) serve(ctx context.Context) {
	defer c.conn.Close()
	cfg := c.handler.config
	c.conn.SetReadLimit(cfg.MaxMessageSize)

	for {
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		kind, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Error("read error", "error", err)
			}
			return
		}
		if kind != websocket.BinaryMessage {
			c.logger.Warn("ignoring non-binary frame", "type", kind)
			continue
		}

		req, err := DecodeRequest(msg)
		if err != nil {
			c.logger.Error("frame decode error", "error", err)
			if c.write(&Response{Error: "malformed request"}) != nil {
				return
			}
			continue
		}

		if err := c.write(c.handle(ctx, req)); err != nil {
			c.logger.Error("write error", "error", err)
			return
		}
	}
}

func (c *connection) handle(ctx context.Context, req *Request) *Response {
	resp := &Response{Seq: req.Seq}
	if len(req.Targets) > c.handler.config.MaxTargets {
		resp.Error = fmt.Sprintf("too many targets: %d", len(req.Targets))
		return resp
	}

	var targets []engine.Target
	for _, t := range req.Targets {
		if !c.wants(t.ID, req.Changed) {
			continue
		}
		targets = append(targets, engine.Target{ID: t.ID, Source: t.Source, Scope: t.Scope})
	}

	res, err := c.handler.engine.Rerender(ctx, c.recorder(req.Path), targets)
	if err != nil {
		c.logger.Error("rerender failed", "seq", req.Seq, "error", err)
		resp.Error = "rerender failed"
		return resp
	}

	for id, keys := range res.Watches {
		c.watches[id] = keys
	}
	resp.Fragments = res.Fragments
	resp.Skipped = res.Skipped
	resp.Watches = res.Watches
	resp.Redirect = res.Redirect
	resp.NotFound = res.NotFound
	return resp
}

// wants reports whether target id is affected by the changed keys.
func (c *connection) wants(id string, changed []string) bool {
	if len(changed) == 0 {
		return true
	}
	keys, known := c.watches[id]
	if !known {
		return true
	}
	for _, k := range keys {
		if slices.Contains(changed, k) {
			return true
		}
	}
	return false
}

// recorder builds the routing context of one interactive pass from the
// upgrade request.
func (c *connection) recorder(path string) *routing.Recorder {
	rec := routing.NewRecorder()
	rec.URLPath = path
	for _, ck := range c.request.Cookies() {
		rec.RequestCookies[ck.Name] = ck.Value
	}
	rec.Agent = c.request.UserAgent()
	return rec
}

func (c *connection) write(resp *Response) error {
	frame, err := EncodeResponse(resp)
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.handler.config.WriteTimeout))
	return c.conn.WriteMessage(websocket.BinaryMessage, frame)
}
