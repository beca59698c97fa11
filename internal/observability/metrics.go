// Package observability accumulates the in-process run summary the pipeline
// reports at the end of a run, and optionally serves it over HTTP.
package observability

import (
	"sync"
	"time"
)

// EndpointStat tracks request/success/failure counts and a running average
// duration for one external collaborator (Tika or the search index).
type EndpointStat struct {
	Requests    int64            `json:"requests"`
	Successes   int64            `json:"successes"`
	Failures    int64            `json:"failures"`
	TotalMillis int64            `json:"-"`
	AvgMillis   float64          `json:"avg_duration_ms"`
	ErrorTypes  map[string]int64 `json:"error_types,omitempty"`
}

func (s *EndpointStat) observe(d time.Duration, errType string) {
	s.Requests++
	s.TotalMillis += d.Milliseconds()
	if errType == "" {
		s.Successes++
	} else {
		s.Failures++
		if s.ErrorTypes == nil {
			s.ErrorTypes = map[string]int64{}
		}
		s.ErrorTypes[errType]++
	}
	if s.Requests > 0 {
		s.AvgMillis = float64(s.TotalMillis) / float64(s.Requests)
	}
}

// RunSummary is the end-of-run accounting: request/success/failure counts
// and an error-type histogram per external collaborator, plus
// per-document pipeline outcome counts. The pipeline records its
// search-index writes through ObserveOpenSearch; nothing in the pipeline
// calls ObserveTika, so the Tika stat stays at zero.
type RunSummary struct {
	mu sync.Mutex

	StartedAt time.Time `json:"started_at"`

	Tika       EndpointStat `json:"tika"`
	OpenSearch EndpointStat `json:"opensearch"`

	GazettesSeen      int64 `json:"gazettes_seen"`
	GazettesProcessed int64 `json:"gazettes_processed"`
	GazettesSkipped   int64 `json:"gazettes_skipped"`
	GazettesFailed    int64 `json:"gazettes_failed"`
	SegmentsProduced  int64 `json:"segments_produced"`
	ExcerptsIndexed   int64 `json:"excerpts_indexed"`
}

func NewRunSummary() *RunSummary {
	return &RunSummary{StartedAt: time.Now()}
}

func (r *RunSummary) ObserveTika(d time.Duration, errType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Tika.observe(d, errType)
}

func (r *RunSummary) ObserveOpenSearch(d time.Duration, errType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.OpenSearch.observe(d, errType)
}

func (r *RunSummary) IncSeen()          { r.mu.Lock(); r.GazettesSeen++; r.mu.Unlock() }
func (r *RunSummary) IncProcessed()     { r.mu.Lock(); r.GazettesProcessed++; r.mu.Unlock() }
func (r *RunSummary) IncSkipped()       { r.mu.Lock(); r.GazettesSkipped++; r.mu.Unlock() }
func (r *RunSummary) IncFailed()        { r.mu.Lock(); r.GazettesFailed++; r.mu.Unlock() }
func (r *RunSummary) AddSegments(n int) { r.mu.Lock(); r.SegmentsProduced += int64(n); r.mu.Unlock() }
func (r *RunSummary) AddExcerptsIndexed(n int) {
	r.mu.Lock()
	r.ExcerptsIndexed += int64(n)
	r.mu.Unlock()
}

// Snapshot returns a copy safe to marshal without holding the lock.
func (r *RunSummary) Snapshot() RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r
	cp.mu = sync.Mutex{}
	return cp
}
