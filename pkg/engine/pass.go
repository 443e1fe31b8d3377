package engine

import (
	"context"
	"io"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/vango-dev/stitch/pkg/component"
	"github.com/vango-dev/stitch/pkg/finalize"
	"github.com/vango-dev/stitch/pkg/routing"
	"github.com/vango-dev/stitch/pkg/tokenizer"
)

// State is the lifecycle state of a Pass.
type State uint8

const (
	StateIdle State = iota
	StateScanning
	StateAwaitingRender
	StateFinalizing
	StateDone
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateAwaitingRender:
		return "awaiting_render"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type cancelCause uint8

const (
	causeNone cancelCause = iota
	causeRouting
	causeContext
	causeTransport
)

// pending is the outstanding render of a pass. ready is closed once res
// has been stored.
type pending struct {
	inv     invocation
	event   RenderEvent
	started time.Time
	ready   chan struct{}
	res     result
}

var closedReady = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Pass is one rendering of a document or of a set of interactive targets.
//
// A Pass is driven by a single goroutine: Pull, Run and Ready must not be
// called concurrently. Component renders run on a helper goroutine, one at
// a time.
type Pass struct {
	id          string
	engine      *Engine
	ctx         context.Context
	routing     routing.Context
	fin         *finalize.Finalizer
	interactive bool
	observer    Observer

	queue   queue
	out     strings.Builder
	state   State
	pending *pending

	documentRendered bool
	headRendered     bool
	headDone         bool
	renderedIDs      map[string]struct{}
	watches          map[string][]string

	cancelled   bool
	cause       cancelCause
	err         error
	lateCookies bool

	started time.Time
	renders int
}

// ID returns the pass id.
func (p *Pass) ID() string { return p.id }

// State returns the current state.
func (p *Pass) State() State { return p.state }

// Finalizer returns the finalizer shared with the pass's sink.
func (p *Pass) Finalizer() *finalize.Finalizer { return p.fin }

// Outcome returns the finalization outcome.
func (p *Pass) Outcome() finalize.Outcome { return p.fin.Outcome() }

// Cancelled reports whether the pass was cancelled.
func (p *Pass) Cancelled() bool { return p.cancelled }

// Renders returns the number of component renders started.
func (p *Pass) Renders() int { return p.renders }

// Watches returns the watch keys of every rendered component that has an
// id and declares watch keys, by id.
func (p *Pass) Watches() map[string][]string {
	out := make(map[string][]string, len(p.watches))
	for id, keys := range p.watches {
		out[id] = append([]string(nil), keys...)
	}
	return out
}

// Rendered reports whether a component with the given id was expanded.
func (p *Pass) Rendered(id string) bool {
	_, ok := p.renderedIDs[id]
	return ok
}

// Ready returns a channel that is closed when Pull can make progress.
func (p *Pass) Ready() <-chan struct{} {
	if p.pending == nil || p.cancelled {
		return closedReady
	}
	return p.pending.ready
}

// Pull advances the pass and returns the output produced since the last
// call. It never blocks: while a render is outstanding it returns an empty
// chunk, and the caller should wait on Ready. Once the pass has nothing
// more to produce Pull returns io.EOF, possibly together with a final
// chunk.
func (p *Pass) Pull() (string, error) {
	switch p.state {
	case StateFinalizing, StateDone, StateCancelled:
		return "", io.EOF
	case StateIdle:
		p.state = StateScanning
	}

	if p.pending != nil {
		select {
		case <-p.pending.ready:
			p.complete()
		default:
			return "", nil
		}
	}

	p.scan()
	if p.cancelled {
		return "", io.EOF
	}

	finished := p.pending == nil
	if !finished && !p.flushable() {
		return "", nil
	}
	chunk := p.out.String()
	p.out.Reset()
	if finished {
		p.state = StateFinalizing
		return chunk, io.EOF
	}
	return chunk, nil
}

// flushable reports whether held output may be released before the scan
// ends. Document passes hold everything until the head has rendered, so a
// redirect requested by the head still changes the status line.
func (p *Pass) flushable() bool {
	return p.interactive || p.headDone
}

// Cancel stops the pass. Queued work is dropped; an outstanding render is
// left to finish and its result is discarded.
func (p *Pass) Cancel() {
	p.cancel(causeContext, nil)
}

func (p *Pass) cancel(cause cancelCause, err error) {
	if p.cancelled {
		return
	}
	p.cancelled = true
	p.cause = cause
	p.state = StateCancelled
	p.queue.drain()
	p.out.Reset()
	if p.err == nil {
		p.err = err
	}
}

func (p *Pass) scan() {
	for !p.cancelled && p.pending == nil {
		it, ok := p.queue.pop()
		if !ok {
			return
		}
		switch it.tok.Kind {
		case tokenizer.KindComponentTag:
			p.expand(it)
		case tokenizer.KindSlotTag:
			p.fillSlot(it)
		default:
			p.out.WriteString(it.tok.Raw)
		}
	}
}

func (p *Pass) literal(it item) {
	p.out.WriteString(it.tok.Raw)
}

// expand handles a component tag: resolve it, check the singleton and id
// rules, capture its body and start the render.
func (p *Pass) expand(it item) {
	tag, ok := tokenizer.ParseTag(it.tok.Raw)
	if !ok {
		p.literal(it)
		return
	}
	child, kind := p.resolve(tag.Name, it.frame)
	if child == nil {
		p.literal(it)
		return
	}

	if it.frame.depth >= p.engine.config.MaxDepth {
		p.literal(it)
		p.observer.Error(ErrorEvent{
			PassID:    p.id,
			Component: child.Name,
			Kind:      ErrorKindMaxDepth,
			Err:       errors.WithDetails(ErrMaxDepth, "depth", it.frame.depth),
		})
		return
	}

	switch kind {
	case tokenizer.ElementDocument:
		if p.documentRendered {
			p.literal(it)
			return
		}
		p.documentRendered = true
	case tokenizer.ElementHead:
		if p.headRendered {
			p.literal(it)
			return
		}
		p.headRendered = true
	}

	id := tag.Attributes.Get("id")
	if id != "" {
		if _, dup := p.renderedIDs[id]; dup {
			p.engine.logger.Debug("duplicate component id", "pass", p.id, "id", id)
			p.literal(it)
			return
		}
		p.renderedIDs[id] = struct{}{}
		if len(child.Watch) > 0 {
			p.watches[id] = append([]string(nil), child.Watch...)
		}
	}

	inv := invocation{
		child:     child,
		attrs:     mergeProps(child.Props, tag.Attributes),
		element:   kind,
		singleton: kind == tokenizer.ElementDocument || kind == tokenizer.ElementHead,
		frame: &frame{
			scope: child.Component,
			via:   child,
			depth: it.frame.depth + 1,
		},
	}

	hostless := kind == tokenizer.ElementDocument
	if tag.SelfClosing {
		if !hostless {
			p.out.WriteString(tokenizer.SelfClosingToOpen(it.tok.Raw))
			inv.closeTag = "</" + tag.Name + ">"
		}
	} else {
		body, closeTag, ok := p.capture(tag.Name, tokenizer.KindComponentTag)
		if !ok {
			closeTag = "</" + tag.Name + ">"
		}
		inv.frame.slot = body
		if !hostless {
			p.out.WriteString(it.tok.Raw)
			inv.closeTag = closeTag
		}
	}

	p.start(inv, id)
}

// resolve maps a tag name to a child entry. The second result is the
// special element name, if the tag is one.
func (p *Pass) resolve(name string, f *frame) (*component.Child, string) {
	r := p.engine.config.Resolver
	switch name {
	case tokenizer.ElementDocument, tokenizer.ElementHead, tokenizer.ElementBody:
		return r.Resolve(name, p.engine.root), name
	}

	local, ok := strings.CutPrefix(name, tokenizer.ComponentPrefix)
	if !ok || local == "" {
		return nil, ""
	}
	if c := r.Resolve(local, f.scope); c != nil {
		return c, ""
	}
	if f.via != nil && f.via.Recursive && f.via.Name == local {
		return f.via, ""
	}
	return nil, ""
}

// capture reads the body of a tag named name from the front source, up
// to its matching close tag. Nested tags of the same name are balanced.
// When no close tag follows, the consumed items are put back and ok is
// false.
func (p *Pass) capture(name string, open tokenizer.Kind) (body []item, closeTag string, ok bool) {
	src := p.queue.front()
	if src == nil {
		return nil, "", false
	}

	depth := 1
	for {
		it, more := src.next()
		if !more {
			p.queue.pushItems(body)
			return nil, "", false
		}
		switch it.tok.Kind {
		case open:
			if t, parsed := tokenizer.ParseTag(it.tok.Raw); parsed && t.Name == name && !t.SelfClosing {
				depth++
			}
		case tokenizer.KindContent:
			if n, closing := tokenizer.CloseTagName(it.tok.Raw); closing && n == name {
				depth--
				if depth == 0 {
					return body, it.tok.Raw, true
				}
			}
		}
		body = append(body, it)
	}
}

// fillSlot replaces a <slot> placeholder by the owner's slot content, or
// by the placeholder's own body when there is none.
func (p *Pass) fillSlot(it item) {
	tag, ok := tokenizer.ParseTag(it.tok.Raw)
	if !ok {
		p.literal(it)
		return
	}

	var fallback []item
	if !tag.SelfClosing {
		fallback, _, _ = p.capture(tokenizer.ElementSlot, tokenizer.KindSlotTag)
	}

	if hasContent(it.frame.slot) {
		p.queue.pushItems(it.frame.slot)
		return
	}
	p.queue.pushItems(fallback)
}

// hasContent reports whether captured slot content is more than
// whitespace.
func hasContent(items []item) bool {
	for _, it := range items {
		if it.tok.Kind != tokenizer.KindContent || strings.TrimSpace(it.tok.Raw) != "" {
			return true
		}
	}
	return false
}

func mergeProps(props map[string]string, attrs tokenizer.Attributes) tokenizer.Attributes {
	merged := attrs.Clone()
	for k, v := range props {
		if !merged.Has(k) {
			merged[k] = tokenizer.Value{Text: v}
		}
	}
	return merged
}

// start launches the render of inv on a helper goroutine.
func (p *Pass) start(inv invocation, id string) {
	p.renders++
	p.state = StateAwaitingRender
	pd := &pending{
		inv:     inv,
		started: time.Now(),
		ready:   make(chan struct{}),
		event: RenderEvent{
			PassID:      p.id,
			Component:   inv.child.Name,
			ID:          id,
			Depth:       inv.frame.depth,
			Interactive: p.interactive,
		},
	}
	p.pending = pd
	p.observer.RenderStart(pd.event)

	ctx := p.ctx
	go func() {
		pd.res = p.invoke(ctx, inv)
		close(pd.ready)
	}()
}

// complete consumes the result of the outstanding render.
func (p *Pass) complete() {
	pd := p.pending
	p.pending = nil
	if p.state == StateAwaitingRender {
		p.state = StateScanning
	}

	ev := pd.event
	ev.Duration = time.Since(pd.started)
	ev.Err = pd.res.err
	p.observer.RenderComplete(ev)
	if pd.res.err != nil {
		p.observer.Error(ErrorEvent{
			PassID:    p.id,
			Component: pd.inv.child.Name,
			Kind:      pd.res.kind,
			Err:       pd.res.err,
		})
	}

	if pd.inv.element == tokenizer.ElementHead {
		p.headDone = true
	}
	if p.cancelled || p.checkEffects() {
		return
	}

	if pd.inv.closeTag != "" {
		p.queue.pushItems([]item{{
			tok:   tokenizer.Token{Kind: tokenizer.KindContent, Raw: pd.inv.closeTag},
			frame: pd.inv.frame,
		}})
	}
	p.queue.pushMarkup(pd.res.markup, pd.inv.frame)
}

// checkEffects cancels the pass when a component asked for a redirect or
// not-found, and reports side effects that arrived after the headers were
// written.
func (p *Pass) checkEffects() bool {
	rc := p.routing
	flushed := p.fin.Done()

	if rc.RedirectRequested() != "" || rc.NotFoundRequested() {
		if flushed {
			p.observer.Error(ErrorEvent{
				PassID: p.id,
				Kind:   ErrorKindLateEffect,
				Err:    errors.WithDetails(ErrRedirectAfterFlush, "location", rc.RedirectRequested()),
			})
		}
		p.cancel(causeRouting, nil)
		return true
	}

	if flushed && !p.lateCookies && len(rc.CookiesToSet()) > p.fin.Cookies() {
		p.lateCookies = true
		p.observer.Error(ErrorEvent{
			PassID: p.id,
			Kind:   ErrorKindLateEffect,
			Err:    ErrCookieAfterFlush,
		})
	}
	return false
}
