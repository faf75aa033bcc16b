package hub

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
)

// Failure describes one subscriber callback that did not complete
type Failure struct {
	Kind   Kind
	Handle Handle
	Err    error
}

// Reporter is the observability sink for subscriber failures
type Reporter interface {
	ReportFailure(f Failure)
}

// ReporterFunc adapts a function to the Reporter interface
type ReporterFunc func(Failure)

// ReportFailure calls f
func (f ReporterFunc) ReportFailure(fl Failure) { f(fl) }

// failureInfo holds aggregated information about failures of one kind
type failureInfo struct {
	count    int
	examples []string
}

// FailureLog logs every failure as it happens and keeps a per-kind
// aggregate for periodic summaries.
type FailureLog struct {
	mu       sync.Mutex
	failures map[Kind]*failureInfo
}

// NewFailureLog creates an empty FailureLog
func NewFailureLog() *FailureLog {
	return &FailureLog{failures: map[Kind]*failureInfo{}}
}

// ReportFailure records and logs f
func (l *FailureLog) ReportFailure(f Failure) {
	log.Printf("subscriber %s failed on %s: %v", f.Handle.ID, f.Kind, f.Err)

	l.mu.Lock()
	defer l.mu.Unlock()
	info := l.failures[f.Kind]
	if info == nil {
		info = &failureInfo{examples: make([]string, 0, 3)}
		l.failures[f.Kind] = info
	}
	info.count++
	// Store up to 3 examples
	if len(info.examples) < 3 {
		info.examples = append(info.examples, f.Err.Error())
	}
}

// Count returns how many failures were recorded for kind
func (l *FailureLog) Count(kind Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if info := l.failures[kind]; info != nil {
		return info.count
	}
	return 0
}

// Summary returns one line per kind with failures, sorted by kind
func (l *FailureLog) Summary() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	kinds := make([]Kind, 0, len(l.failures))
	for k := range l.failures {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		info := l.failures[k]
		out = append(out, fmt.Sprintf("%s subscribers failed %d times. Examples: %s",
			k, info.count, strings.Join(info.examples, "; ")))
	}
	return out
}

// LogAll outputs the aggregated summary
func (l *FailureLog) LogAll() {
	for _, line := range l.Summary() {
		log.Printf("%s", line)
	}
}
