package engine

import (
	"strings"

	"github.com/vango-dev/stitch/pkg/finalize"
	"github.com/vango-dev/stitch/pkg/routing"
)

// Sink receives the output of a pass.
type Sink interface {
	// Push delivers a chunk of output.
	Push(chunk string) error

	// Finalize is called once after the last chunk, unless the pass was
	// cancelled by its context or a transport error.
	Finalize() error
}

// StreamSink writes chunks to the transport as they arrive. The first
// chunk triggers finalization.
type StreamSink struct {
	fin *finalize.Finalizer
	out routing.Output
}

// NewStreamSink returns a StreamSink.
func NewStreamSink(fin *finalize.Finalizer, out routing.Output) *StreamSink {
	return &StreamSink{fin: fin, out: out}
}

func (s *StreamSink) Push(chunk string) error {
	outcome, err := s.fin.Finalize()
	if err != nil {
		return err
	}
	if outcome != finalize.OutcomeSuccess {
		return ErrPassCancelled
	}
	return s.out.Write(chunk)
}

func (s *StreamSink) Finalize() error {
	outcome, err := s.fin.Finalize()
	if err != nil || outcome != finalize.OutcomeSuccess {
		return err
	}
	return s.out.End()
}

// BufferSink holds the whole document and writes it in one piece after
// finalization.
type BufferSink struct {
	fin *finalize.Finalizer
	out routing.Output
	buf strings.Builder
}

// NewBufferSink returns a BufferSink.
func NewBufferSink(fin *finalize.Finalizer, out routing.Output) *BufferSink {
	return &BufferSink{fin: fin, out: out}
}

func (s *BufferSink) Push(chunk string) error {
	s.buf.WriteString(chunk)
	return nil
}

func (s *BufferSink) Finalize() error {
	outcome, err := s.fin.Finalize()
	if err != nil || outcome != finalize.OutcomeSuccess {
		s.buf.Reset()
		return err
	}
	if s.buf.Len() > 0 {
		if err := s.out.Write(s.buf.String()); err != nil {
			return err
		}
	}
	s.buf.Reset()
	return s.out.End()
}

// StringSink collects the document in memory. The routing context still
// sees a finalization, so a redirect leaves the string empty.
type StringSink struct {
	fin *finalize.Finalizer
	buf strings.Builder
}

// NewStringSink returns a StringSink.
func NewStringSink(fin *finalize.Finalizer) *StringSink {
	return &StringSink{fin: fin}
}

func (s *StringSink) Push(chunk string) error {
	s.buf.WriteString(chunk)
	return nil
}

func (s *StringSink) Finalize() error {
	outcome, err := s.fin.Finalize()
	if outcome.Cancels() {
		s.buf.Reset()
	}
	return err
}

// String returns the collected output.
func (s *StringSink) String() string {
	return s.buf.String()
}
