package importer

// progress.go defines the event stream an import run produces.
//
// Events arrive in strict commit order: zero or more ProgressEvents, then
// exactly one terminal event (CompleteEvent or ErrorEvent). Nothing is ever
// emitted after the terminal event. The wire encoding of events is a
// transport concern; the web layer frames them as SSE.

// Event is one entry of an import run's ordered event stream.
type Event interface {
	terminal() bool
}

// ProgressEvent reports row progress after a row commit completes.
type ProgressEvent struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}

func (ProgressEvent) terminal() bool { return false }

// CompleteEvent is the terminal event of a run that processed all rows.
// Errors carries per-row commit failures; ImportedCount may be non-zero
// alongside them.
type CompleteEvent struct {
	Complete      bool          `json:"complete"`
	ImportedCount int           `json:"importedCount"`
	Errors        []ImportError `json:"errors"`
}

func (CompleteEvent) terminal() bool { return true }

// ErrorEvent is the terminal event of a rejected or aborted run.
type ErrorEvent struct {
	Error  string        `json:"error"`
	Errors []ImportError `json:"errors,omitempty"`
}

func (ErrorEvent) terminal() bool { return true }

// reporter serializes events onto a channel and enforces the single-terminal
// invariant.
type reporter struct {
	ch   chan Event
	done bool
}

func newReporter() *reporter {
	return &reporter{ch: make(chan Event, 16)}
}

func (r *reporter) progress(imported, total int) {
	if r.done {
		return
	}
	r.ch <- ProgressEvent{Imported: imported, Total: total}
}

func (r *reporter) complete(importedCount int, errs []ImportError) {
	if r.done {
		return
	}
	if errs == nil {
		errs = []ImportError{}
	}
	r.ch <- CompleteEvent{Complete: true, ImportedCount: importedCount, Errors: errs}
	r.close()
}

func (r *reporter) fail(message string, errs []ImportError) {
	if r.done {
		return
	}
	r.ch <- ErrorEvent{Error: message, Errors: errs}
	r.close()
}

func (r *reporter) close() {
	r.done = true
	close(r.ch)
}
