package engine

import (
	"github.com/vango-dev/stitch/pkg/component"
	"github.com/vango-dev/stitch/pkg/tokenizer"
)

// frame is the resolution scope of a run of tokens: the component whose
// template produced them.
type frame struct {
	scope *component.Descriptor
	via   *component.Child // entry that expanded scope; nil for the root
	slot  []item           // content captured from the host tag
	depth int
}

// item is a queued token together with the frame it resolves in.
type item struct {
	tok   tokenizer.Token
	frame *frame
}

type source interface {
	next() (item, bool)
}

// sliceSource replays already scanned items.
type sliceSource struct {
	items []item
	pos   int
}

func (s *sliceSource) next() (item, bool) {
	if s.pos >= len(s.items) {
		return item{}, false
	}
	it := s.items[s.pos]
	s.pos++
	return it, true
}

// docSource tokenizes markup lazily, binding every token to one frame.
type docSource struct {
	doc   *tokenizer.Document
	frame *frame
}

func (s *docSource) next() (item, bool) {
	tok := s.doc.Next()
	if tok.Kind == tokenizer.KindEnd {
		return item{}, false
	}
	return item{tok: tok, frame: s.frame}, true
}

// queue is the work queue of a pass: a stack of sources read front to
// back. Pushing puts work in front of everything already queued.
type queue struct {
	sources []source
}

func (q *queue) pushItems(items []item) {
	if len(items) == 0 {
		return
	}
	q.sources = append(q.sources, &sliceSource{items: items})
}

func (q *queue) pushMarkup(markup string, f *frame) {
	if markup == "" {
		return
	}
	q.sources = append(q.sources, &docSource{doc: tokenizer.NewDocument(markup), frame: f})
}

// front returns the source the next item comes from, or nil.
func (q *queue) front() source {
	if len(q.sources) == 0 {
		return nil
	}
	return q.sources[len(q.sources)-1]
}

func (q *queue) pop() (item, bool) {
	for len(q.sources) > 0 {
		if it, ok := q.front().next(); ok {
			return it, true
		}
		q.sources[len(q.sources)-1] = nil
		q.sources = q.sources[:len(q.sources)-1]
	}
	return item{}, false
}

func (q *queue) drain() {
	clear(q.sources)
	q.sources = q.sources[:0]
}
