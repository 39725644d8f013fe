// Package report renders pipeline output as ordered, labelled text sections.
//
// Each section is evaluated inside its own failure boundary (Guard), so a
// broken query only ever turns its own section into an error note.
package report

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
)

const ruleWidth = 70

// Section is the result of evaluating one report section: lines on success,
// Err on failure.
type Section struct {
	Title string
	Lines []string
	Err   error
}

// OK reports whether the section rendered without error.
func (s Section) OK() bool {
	return s.Err == nil
}

// Report is one complete run of a pipeline.
type Report struct {
	Pipeline    string
	RunID       string
	Endpoint    string
	GeneratedAt time.Time
	Sections    []Section
}

// Failed returns the number of sections that ended in error.
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Sections {
		if !s.OK() {
			n++
		}
	}
	return n
}

// Guard evaluates fn as a single section. Errors and panics are captured in
// the returned Section and logged; they never propagate to the caller.
// A nil logger discards the log entries.
func Guard(logger *zap.Logger, title string, fn func() ([]string, error)) (s Section) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s.Title = title
	defer func() {
		if r := recover(); r != nil {
			s.Lines = nil
			s.Err = fmt.Errorf("panic: %v", r)
			logger.Error("Report section panicked",
				zap.String("section", title),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	lines, err := fn()
	if err != nil {
		logger.Warn("Report section failed", zap.String("section", title), zap.Error(err))
		return Section{Title: title, Err: err}
	}
	return Section{Title: title, Lines: lines}
}

// Render writes the report as plain text.
func Render(w io.Writer, r *Report) error {
	pw := &printer{w: w}

	pw.line("")
	pw.line(strings.Repeat("=", ruleWidth))
	pw.line(strings.ToUpper(r.Pipeline) + " BRIDGE ANALYTICS REPORT")
	pw.line(strings.Repeat("=", ruleWidth))
	if r.Endpoint != "" {
		pw.printf("Indexer: %s\n", r.Endpoint)
	}
	pw.printf("Run:     %s\n", r.RunID)
	pw.printf("Time:    %s\n", r.GeneratedAt.UTC().Format(time.RFC3339))
	pw.line("")

	for _, s := range r.Sections {
		pw.line(heading(s.Title))
		if s.Err != nil {
			pw.printf("  Error: %v\n", s.Err)
		} else {
			for _, l := range s.Lines {
				pw.printf("  %s\n", l)
			}
		}
		pw.line("")
	}

	pw.line(strings.Repeat("=", ruleWidth))
	ok := len(r.Sections) - r.Failed()
	if failed := r.Failed(); failed > 0 {
		pw.printf("Summary: %d section(s) ok, %d failed\n", ok, failed)
	} else {
		pw.printf("Summary: %d section(s) ok\n", ok)
	}
	pw.line(strings.Repeat("=", ruleWidth))

	return pw.err
}

// String renders the report into a string.
func (r *Report) String() string {
	var b strings.Builder
	_ = Render(&b, r)
	return b.String()
}

func heading(title string) string {
	h := "--- " + strings.ToUpper(title) + " "
	if len(h) < ruleWidth {
		h += strings.Repeat("-", ruleWidth-len(h))
	}
	return h
}

// printer keeps the first write error so Render can report it once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}
