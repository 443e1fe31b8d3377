// Package component defines what the stitch engine renders: component
// descriptors, the capability interfaces a component instance implements,
// and the immutable Context each instance is constructed with.
//
// # Descriptors
//
// A Descriptor names a component type, holds its constructor and lists the
// children that may appear in its template. The application owns the tree;
// the engine only reads it.
//
//	card := &component.Descriptor{
//	    Name: "card",
//	    New:  component.Func(func(ctx context.Context, c *component.Context) (string, error) {
//	        return `<h2>` + c.Attr("title") + `</h2><slot></slot>`, nil
//	    }),
//	}
//	root := component.NewRoot(document, head, component.Child{Name: "card", Component: card})
//
// # Lifecycle
//
// The engine builds a Context, calls Descriptor.New with it, then calls the
// optional Renderer capability and finally one of the template capabilities:
//
//   - Templater: Template(ctx, data) (string, error)
//   - TemplComponent: Templ(ctx, data) (templ.Component, error)
//
// Capabilities are checked structurally. An instance implementing neither
// template capability renders as empty markup.
package component
