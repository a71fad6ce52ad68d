package processing

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"synth-depth-go/internal/types"
)

// Summary accumulates per-frame outcomes of one visualizer run. It is safe
// for concurrent use so the preview server can snapshot it mid-run.
type Summary struct {
	mu       sync.Mutex
	runID    string
	started  time.Time
	finished time.Time
	counts   map[types.FrameStatus]int
	written  []int
	lastPath string
}

func NewSummary() *Summary {
	return &Summary{
		runID:   uuid.NewString(),
		started: time.Now(),
		counts:  make(map[types.FrameStatus]int),
	}
}

func (s *Summary) Add(event types.FrameEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[event.Status]++
	if event.Status == types.FrameWritten {
		s.written = append(s.written, event.Index)
		s.lastPath = event.Path
	}
}

func (s *Summary) Finish() {
	s.mu.Lock()
	s.finished = time.Now()
	s.mu.Unlock()
}

func (s *Summary) RunID() string {
	return s.runID
}

func (s *Summary) Count(status types.FrameStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[status]
}

func (s *Summary) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

func (s *Summary) Written() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]int(nil), s.written...)
	sort.Ints(out)
	return out
}

func (s *Summary) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished.IsZero() {
		return time.Since(s.started)
	}
	return s.finished.Sub(s.started)
}

func (s *Summary) Snapshot() types.SummarySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int, len(s.counts))
	for status, n := range s.counts {
		counts[string(status)] = n
	}
	written := append([]int(nil), s.written...)
	sort.Ints(written)
	return types.SummarySnapshot{
		RunID:    s.runID,
		Counts:   counts,
		LastPath: s.lastPath,
		Written:  written,
	}
}

func Timestamp() string {
	return time.Now().Format("20060102_150405")
}
