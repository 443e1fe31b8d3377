// Package engine resolves component tags in an HTML document.
//
// A Pass scans its source with the document tokenizer and replaces every
// resolvable component tag by the markup of the component it names. The
// replacement is tokenized again and placed at the front of the work queue,
// so components used by a template are expanded before anything that
// follows it. Only one component renders at a time; the consumer pulls
// output chunks and waits on Ready while a render is outstanding.
//
// The output of a pass goes to a Sink. StreamSink writes chunks to the
// transport as they become available, BufferSink writes the whole document
// at the end and StringSink collects it in memory. Every sink finalizes
// through a finalize.Finalizer, which turns the side effects requested by
// components (redirect, not-found, cookies) into a status line and headers.
//
// Basic usage:
//
//	eng := engine.New(root, engine.Config{Release: true})
//	outcome, err := eng.Stream(ctx, rc)
package engine
