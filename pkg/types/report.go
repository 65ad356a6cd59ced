package types

import (
	"fmt"
	"sync"
)

// Severity of a report entry
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "info"
}

// Report is one entry of a ReportList.
type Report struct {
	Severity Severity
	Message  string
}

// ReportList accumulates degraded outcomes of a batch. It is safe for
// concurrent use and a nil list discards everything.
type ReportList struct {
	mu    sync.Mutex
	items []Report
}

// NewReportList returns an empty list.
func NewReportList() *ReportList {
	return &ReportList{}
}

// Addf appends a formatted report.
func (r *ReportList) Addf(sev Severity, format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Report{Severity: sev, Message: fmt.Sprintf(format, args...)})
}

// Items returns a copy of the reports in insertion order.
func (r *ReportList) Items() []Report {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.items))
	copy(out, r.items)
	return out
}

// Count returns the number of reports of a severity.
func (r *ReportList) Count(sev Severity) int {
	n := 0
	for _, item := range r.Items() {
		if item.Severity == sev {
			n++
		}
	}
	return n
}

// HasErrors is true when at least one error was reported.
func (r *ReportList) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// Len returns the number of reports.
func (r *ReportList) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
