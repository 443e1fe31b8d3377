package component

import (
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
)

// Names of the root children the engine looks up directly.
const (
	DocumentName = "document"
	HeadName     = "head"
	BodyName     = "body"
)

// Sentinel errors returned by Validate.
var (
	ErrMissingDocument = errors.Base("component: no document component registered")
	ErrMissingHead     = errors.Base("component: no head component registered")

	// ErrInvalidChild wraps every malformed Child entry.
	ErrInvalidChild = errors.Base("component: invalid child")
)

// Descriptor describes a component type.
type Descriptor struct {
	// Name is used in diagnostics and observer events.
	Name string

	// New creates an instance. Required.
	New Constructor

	// Children are the components that may appear in this component's
	// template, in lookup order.
	Children []Child

	// ErrorTemplate renders the replacement markup for a failed render in
	// release mode. Optional.
	ErrorTemplate func(c *Context, err error) string
}

// Child is an entry in a descriptor's child list.
type Child struct {
	// Name is the tag name without the component prefix: "card" is used
	// as <c-card>.
	Name string

	// Component is the child's descriptor.
	Component *Descriptor

	// Watch lists the state keys the child re-renders on in the
	// interactive variant.
	Watch []string

	// Props are default attributes. Attributes on the tag take precedence.
	Props map[string]string

	// Recursive lets the child appear inside its own template.
	Recursive bool
}

// Child returns the child entry with the given name, or nil.
func (d *Descriptor) Child(name string) *Child {
	if d == nil {
		return nil
	}
	for i := range d.Children {
		if d.Children[i].Name == name {
			return &d.Children[i]
		}
	}
	return nil
}

// NewRoot builds the root descriptor of a document tree. The root itself is
// never rendered; it only scopes the document and head singletons and any
// components used directly by the document source.
func NewRoot(document, head *Descriptor, children ...Child) *Descriptor {
	root := &Descriptor{Name: "root"}
	if document != nil {
		root.Children = append(root.Children, Child{Name: DocumentName, Component: document})
	}
	if head != nil {
		root.Children = append(root.Children, Child{Name: HeadName, Component: head})
	}
	root.Children = append(root.Children, children...)
	return root
}

// Resolver looks up a child by name in a scope.
type Resolver interface {
	Resolve(name string, scope *Descriptor) *Child
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string, scope *Descriptor) *Child

// Resolve calls f.
func (f ResolverFunc) Resolve(name string, scope *Descriptor) *Child {
	return f(name, scope)
}

// Lookup resolves names against the scope's direct children.
var Lookup Resolver = ResolverFunc(func(name string, scope *Descriptor) *Child {
	return scope.Child(name)
})

// Validate checks the tree below root and returns every problem found.
func Validate(root *Descriptor) error {
	var err error
	if c := root.Child(DocumentName); c == nil || c.Component == nil {
		err = multierr.Append(err, ErrMissingDocument)
	}
	if c := root.Child(HeadName); c == nil || c.Component == nil {
		err = multierr.Append(err, ErrMissingHead)
	}

	seen := map[*Descriptor]bool{root: true}
	stack := []*Descriptor{root}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		names := make(map[string]bool, len(d.Children))
		for _, c := range d.Children {
			switch {
			case c.Name == "":
				err = multierr.Append(err, errors.Errorf("%w: %q has a child with an empty name", ErrInvalidChild, d.Name))
				continue
			case c.Component == nil:
				err = multierr.Append(err, errors.Errorf("%w: %q child %q has no descriptor", ErrInvalidChild, d.Name, c.Name))
				continue
			case names[c.Name]:
				err = multierr.Append(err, errors.Errorf("%w: %q has a duplicate child %q", ErrInvalidChild, d.Name, c.Name))
			case c.Component.New == nil:
				err = multierr.Append(err, errors.Errorf("%w: %q child %q has no constructor", ErrInvalidChild, d.Name, c.Name))
			}
			names[c.Name] = true
			if !seen[c.Component] {
				seen[c.Component] = true
				stack = append(stack, c.Component)
			}
		}
	}
	return err
}
