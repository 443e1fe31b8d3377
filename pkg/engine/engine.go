package engine

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"

	"github.com/vango-dev/stitch/pkg/component"
	"github.com/vango-dev/stitch/pkg/finalize"
	"github.com/vango-dev/stitch/pkg/routing"
	"github.com/vango-dev/stitch/pkg/tokenizer"
)

// DocumentSource is the source of a full document pass.
const DocumentSource = "<" + tokenizer.ElementDocument + "></" + tokenizer.ElementDocument + ">"

// Engine renders documents for a component tree. It holds no per-pass
// state and is safe for concurrent use.
type Engine struct {
	root     *component.Descriptor
	config   Config
	logger   *slog.Logger
	observer Observer
}

// New returns an Engine for the tree below root.
func New(root *component.Descriptor, config Config) *Engine {
	config = config.withDefaults()
	return &Engine{
		root:     root,
		config:   config,
		logger:   config.Logger,
		observer: safeObserver{next: config.Observer, logger: config.Logger},
	}
}

// Root returns the root descriptor.
func (e *Engine) Root() *component.Descriptor { return e.root }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.config }

// NewPass prepares a pass over source. It fails with ErrMissingRoot when
// the root has no document or head component; nothing has been written
// in that case.
func (e *Engine) NewPass(ctx context.Context, source string, rc routing.Context) (*Pass, error) {
	return e.newPass(ctx, source, rc, false)
}

func (e *Engine) newPass(ctx context.Context, source string, rc routing.Context, interactive bool) (*Pass, error) {
	if rc == nil {
		rc = routing.NewRecorder()
	}
	p := &Pass{
		id:          uuid.NewString(),
		engine:      e,
		ctx:         ctx,
		routing:     rc,
		fin:         finalize.New(rc, e.config.Product),
		interactive: interactive,
		observer:    e.observer,
		renderedIDs: map[string]struct{}{},
		watches:     map[string][]string{},
		started:     time.Now(),
	}

	r := e.config.Resolver
	if r.Resolve(component.DocumentName, e.root) == nil || r.Resolve(component.HeadName, e.root) == nil {
		err := errors.WithDetails(ErrMissingRoot, "root", e.root.Name)
		p.observer.Error(ErrorEvent{PassID: p.id, Kind: ErrorKindMissingRoot, Err: err})
		return nil, err
	}

	p.queue.pushMarkup(source, &frame{scope: e.root})
	return p, nil
}

// Run drives the pass to completion, pushing output into sink and
// finalizing it. Redirect and not-found outcomes are not errors; inspect
// Outcome for them.
func (p *Pass) Run(sink Sink) error {
	defer p.finish()

	for {
		chunk, err := p.Pull()
		if chunk != "" {
			if perr := sink.Push(chunk); perr != nil {
				p.transportFailure(perr)
				break
			}
		}
		if err == io.EOF {
			break
		}
		if chunk == "" {
			select {
			case <-p.Ready():
			case <-p.ctx.Done():
				p.cancel(causeContext, context.Cause(p.ctx))
			}
		}
	}

	if p.cause == causeContext || p.cause == causeTransport {
		return p.err
	}
	if err := sink.Finalize(); err != nil {
		p.transportFailure(err)
		return p.err
	}
	if !p.cancelled {
		p.state = StateDone
	}
	return nil
}

func (p *Pass) transportFailure(err error) {
	if errors.Is(err, ErrPassCancelled) {
		p.cancel(causeRouting, nil)
		return
	}
	p.cancel(causeTransport, errors.WithStack(err))
	p.observer.Error(ErrorEvent{PassID: p.id, Kind: ErrorKindTransport, Err: err})
}

func (p *Pass) finish() {
	if pd := p.pending; pd != nil {
		// The render is still running; its result will be dropped.
		p.pending = nil
		ev := pd.event
		ev.Duration = time.Since(pd.started)
		ev.Err = ErrPassCancelled
		p.observer.RenderComplete(ev)
	}
	p.observer.PassComplete(PassEvent{
		PassID:      p.id,
		Interactive: p.interactive,
		Outcome:     p.fin.Outcome(),
		Renders:     p.renders,
		Cancelled:   p.cancelled,
		Duration:    time.Since(p.started),
		Err:         p.err,
	})
}

// Stream renders the document and writes it to rc as it is produced.
func (e *Engine) Stream(ctx context.Context, rc routing.Context) (finalize.Outcome, error) {
	p, err := e.NewPass(ctx, DocumentSource, rc)
	if err != nil {
		return finalize.OutcomePending, err
	}
	err = p.Run(NewStreamSink(p.fin, p.routing.Output()))
	return p.Outcome(), err
}

// Buffer renders the whole document before writing it to rc.
func (e *Engine) Buffer(ctx context.Context, rc routing.Context) (finalize.Outcome, error) {
	p, err := e.NewPass(ctx, DocumentSource, rc)
	if err != nil {
		return finalize.OutcomePending, err
	}
	err = p.Run(NewBufferSink(p.fin, p.routing.Output()))
	return p.Outcome(), err
}

// RenderString renders source and returns the markup. A nil rc uses a
// fresh routing.Recorder.
func (e *Engine) RenderString(ctx context.Context, source string, rc routing.Context) (string, error) {
	p, err := e.NewPass(ctx, source, rc)
	if err != nil {
		return "", err
	}
	sink := NewStringSink(p.fin)
	if err := p.Run(sink); err != nil {
		return "", err
	}
	return sink.String(), nil
}
