package engine

import (
	"context"
	"io"
	"strings"

	"github.com/vango-dev/stitch/pkg/component"
	"github.com/vango-dev/stitch/pkg/routing"
)

// Target is a component to re-render in an interactive pass.
type Target struct {
	// ID is the element id of the component's host tag.
	ID string

	// Source is the host tag markup to render, for example
	// `<c-counter id="c1" start="3"></c-counter>`.
	Source string

	// Scope is the path of child names from the root to the component
	// whose template contains the target. Empty means the root.
	Scope []string
}

// Fragment is the re-rendered markup of one target.
type Fragment struct {
	ID     string `msgpack:"id" json:"id"`
	Markup string `msgpack:"markup" json:"markup"`
}

// RerenderResult is the outcome of an interactive pass.
type RerenderResult struct {
	Fragments []Fragment
	Skipped   []string
	Redirect  string
	NotFound  bool
	Watches   map[string][]string
}

// Rerender renders targets in order within one pass. A target whose id was
// already rendered earlier in the pass, typically as a descendant of a
// previous target, is skipped. A redirect or not-found request stops the
// pass; fragments rendered before it are returned.
func (e *Engine) Rerender(ctx context.Context, rc routing.Context, targets []Target) (*RerenderResult, error) {
	p, err := e.newPass(ctx, "", rc, true)
	if err != nil {
		return nil, err
	}
	defer p.finish()

	res := &RerenderResult{}
	for _, t := range targets {
		if t.ID != "" && p.Rendered(t.ID) {
			res.Skipped = append(res.Skipped, t.ID)
			continue
		}
		scope, err := e.scope(t.Scope)
		if err != nil {
			return nil, err
		}

		p.state = StateScanning
		p.queue.pushMarkup(t.Source, &frame{scope: scope, depth: len(t.Scope)})
		markup, err := p.collect()
		if err != nil {
			return nil, err
		}
		if p.cancelled {
			break
		}
		res.Fragments = append(res.Fragments, Fragment{ID: t.ID, Markup: markup})
	}

	res.Redirect = p.routing.RedirectRequested()
	res.NotFound = p.routing.NotFoundRequested()
	res.Watches = p.Watches()
	if _, err := p.fin.Finalize(); err != nil {
		return nil, err
	}
	if !p.cancelled {
		p.state = StateDone
	}
	return res, nil
}

// collect runs the queued work to completion and returns its output.
func (p *Pass) collect() (string, error) {
	var b strings.Builder
	for {
		chunk, err := p.Pull()
		b.WriteString(chunk)
		if err == io.EOF {
			return b.String(), nil
		}
		if chunk == "" {
			select {
			case <-p.Ready():
			case <-p.ctx.Done():
				p.cancel(causeContext, context.Cause(p.ctx))
				return "", p.err
			}
		}
	}
}

// scope walks a child-name path from the root.
func (e *Engine) scope(path []string) (*component.Descriptor, error) {
	d := e.root
	for _, name := range path {
		c := e.config.Resolver.Resolve(name, d)
		if c == nil {
			return nil, &ScopeError{Path: path, Missing: name}
		}
		d = c.Component
	}
	return d, nil
}

// ScopeError reports a Target.Scope that does not exist in the tree.
type ScopeError struct {
	Path    []string
	Missing string
}

func (e *ScopeError) Error() string {
	return "engine: no child " + e.Missing + " in scope " + strings.Join(e.Path, "/")
}
