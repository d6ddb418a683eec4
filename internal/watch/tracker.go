// Package watch follows a container directory and unpacks frames as
// the producer drops them.
package watch

import (
	"sort"
	"sync"
	"time"
)

// FrameResult records the outcome of unpacking one container.
type FrameResult struct {
	Frame     string `json:"frame"`
	Datasets  int    `json:"datasets"`
	Artifacts int    `json:"artifacts"`
	Error     string `json:"error,omitempty"`
	Time      string `json:"time"`
}

// Summary is a point-in-time view of a watch run.
type Summary struct {
	Frames    int           `json:"frames"`
	Artifacts int           `json:"artifacts"`
	Failed    int           `json:"failed"`
	LastFrame string        `json:"last_frame,omitempty"`
	Results   []FrameResult `json:"results"`
}

// Tracker accumulates frame results across a watch run. Re-unpacked
// frames replace their previous result.
type Tracker struct {
	mu      sync.Mutex
	results map[string]FrameResult
	last    string
}

func NewTracker() *Tracker {
	return &Tracker{results: make(map[string]FrameResult)}
}

func (t *Tracker) Add(res FrameResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results[res.Frame] = res
	t.last = res.Frame
}

// Snapshot copies the current state, with results sorted by frame.
func (t *Tracker) Snapshot() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{LastFrame: t.last}
	for _, res := range t.results {
		s.Results = append(s.Results, res)
		if res.Error != "" {
			s.Failed++
			continue
		}
		s.Frames++
		s.Artifacts += res.Artifacts
	}
	sort.Slice(s.Results, func(i, j int) bool { return s.Results[i].Frame < s.Results[j].Frame })
	return s
}

// Timestamp formats the current time the way run artifacts are named.
func Timestamp() string {
	return time.Now().Format("20060102_150405")
}
