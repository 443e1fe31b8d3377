package engine

import (
	"context"
	"fmt"

	"gitlab.com/tozd/go/errors"

	"github.com/vango-dev/stitch/pkg/component"
	"github.com/vango-dev/stitch/pkg/tokenizer"
)

// invocation is one component render requested by the scanner.
type invocation struct {
	child     *component.Child
	attrs     tokenizer.Attributes
	frame     *frame // frame of the component's own template
	closeTag  string // emitted after the template; empty for hostless tags
	element   string // document, head or body; empty for prefixed tags
	singleton bool
}

type result struct {
	markup string
	err    error
	kind   ErrorKind
}

// invoke runs the lifecycle of one component: construct, load data,
// render the template. Faults never escape; they are turned into
// fallback markup and reported in the result.
func (p *Pass) invoke(ctx context.Context, inv invocation) (res result) {
	cctx := component.NewContext(component.ContextConfig{
		Name:        inv.child.Name,
		Attributes:  inv.attrs,
		PassID:      p.id,
		Interactive: p.interactive,
		Helpers:     p.routing,
		Logger:      p.engine.logger,
	})

	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			res = p.fault(cctx, inv, errors.WithStack(err))
		}
	}()

	inst, err := inv.child.Component.New(cctx)
	if err != nil {
		return p.fault(cctx, inv, errors.WithStack(err))
	}

	var data any = component.Data{}
	if r, ok := inst.(component.Renderer); ok {
		if data, err = r.Render(ctx); err != nil {
			return p.fault(cctx, inv, errors.WithStack(err))
		}
	}

	switch t := inst.(type) {
	case component.Templater:
		markup, err := t.Template(ctx, data)
		if err != nil {
			return p.fault(cctx, inv, errors.WithStack(err))
		}
		return result{markup: markup}

	case component.TemplComponent:
		tc, err := t.Templ(ctx, data)
		if err != nil {
			return p.fault(cctx, inv, errors.WithStack(err))
		}
		markup, err := component.RenderTempl(ctx, tc)
		if err != nil {
			return p.fault(cctx, inv, errors.WithStack(err))
		}
		return result{markup: markup}

	default:
		cctx.Logger().Warn("component has no template", "type", fmt.Sprintf("%T", inst))
		return result{
			err:  errors.WithDetails(ErrNoTemplate, "component", inv.child.Name),
			kind: ErrorKindNoTemplate,
		}
	}
}

func (p *Pass) fault(c *component.Context, inv invocation, err error) result {
	return result{
		markup: p.fallback(c, inv, err),
		err:    err,
		kind:   ErrorKindComponent,
	}
}
