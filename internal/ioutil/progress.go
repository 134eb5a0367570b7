package ioutil

import (
	"sync"

	"github.com/grailbio/base/log"
)

// ProgressCounter is a mutex-guarded pair counter that logs every 100 pairs,
// grounded on cmd/bio-fusion/main.go's progress-log idiom (there keyed on
// 1Mi reads; here on every 100 pairs per spec.md §5) and its memStats
// mutex-guarded struct shape.
type ProgressCounter struct {
	mu    sync.Mutex
	n     int64
	label string
}

// NewProgressCounter returns a counter that logs as "<label>: N pairs done".
func NewProgressCounter(label string) *ProgressCounter {
	return &ProgressCounter{label: label}
}

// Add increments the counter by delta and logs if a multiple of 100 was
// crossed.
func (p *ProgressCounter) Add(delta int) {
	p.mu.Lock()
	before := p.n
	p.n += int64(delta)
	after := p.n
	p.mu.Unlock()
	if before/100 != after/100 {
		log.Printf("%s: %d pairs done", p.label, after-after%100)
	}
}

// Count returns the current total.
func (p *ProgressCounter) Count() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}
