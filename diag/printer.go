package diag

import (
	"fmt"
	"io"
	"strings"
)

// Printer is the minimal "what to print" surface the compiler needs: a
// stream of rendered diagnostics, with no pagination, table layout, or
// screen-size probing, since diagnostics are a flat list of short
// messages, not a REPL result set.
type Printer interface {
	io.Writer
	WriteString(s string)
}

// batchPrinter writes every diagnostic straight through to an underlying
// io.Writer without buffering or pagination, for non-interactive output.
type batchPrinter struct {
	out io.Writer
}

// NewBatchPrinter creates a Printer that writes to out immediately.
func NewBatchPrinter(out io.Writer) Printer {
	return &batchPrinter{out: out}
}

func (p *batchPrinter) Write(data []byte) (int, error) { return p.out.Write(data) }
func (p *batchPrinter) WriteString(s string)           { p.out.Write([]byte(s)) }

// BufferPrinter accumulates rendered diagnostics in memory; String yields
// everything written so far. Used by tests and by callers that want to
// collect diagnostics before deciding how to display them.
type BufferPrinter struct {
	buf strings.Builder
}

// NewBufferPrinter creates an empty BufferPrinter.
func NewBufferPrinter() *BufferPrinter { return &BufferPrinter{} }

func (p *BufferPrinter) Write(data []byte) (int, error) { return p.buf.Write(data) }
func (p *BufferPrinter) WriteString(s string)           { p.buf.WriteString(s) }
func (p *BufferPrinter) String() string                 { return p.buf.String() }
func (p *BufferPrinter) Len() int                       { return p.buf.Len() }

// Render writes one "error: <message>" line per error to w, in order,
// using each error's Error() string; every error kind is rendered the same
// way.
func Render(w Printer, errs []error) {
	for _, err := range errs {
		w.WriteString(fmt.Sprintf("error: %s\n", err.Error()))
	}
}
