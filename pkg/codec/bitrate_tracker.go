package codec

import (
	"sync"
	"time"
)

// BitrateTracker measures produced bitrate over a sliding time window.
// It is safe for concurrent use, so an out-of-band injector and a
// pipeline-side reader can share one tracker.
type BitrateTracker struct {
	mu         sync.Mutex
	windowSize time.Duration
	sizes      []int
	times      []time.Time
}

// NewBitrateTracker returns a tracker averaging over windowSize.
func NewBitrateTracker(windowSize time.Duration) *BitrateTracker {
	return &BitrateTracker{
		windowSize: windowSize,
	}
}

// AddFrame records one produced frame of sizeBytes at timestamp.
func (bt *BitrateTracker) AddFrame(sizeBytes int, timestamp time.Time) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.sizes = append(bt.sizes, sizeBytes)
	bt.times = append(bt.times, timestamp)
	bt.pruneLocked(timestamp)
}

// Bitrate returns the average bitrate in bits per second across the
// frames currently inside the window, or 0 when fewer than two frames
// are available.
func (bt *BitrateTracker) Bitrate() float64 {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	if len(bt.times) < 2 {
		return 0
	}
	totalBytes := 0
	for _, s := range bt.sizes {
		totalBytes += s
	}
	duration := bt.times[len(bt.times)-1].Sub(bt.times[0]).Seconds()
	if duration <= 0 {
		return 0
	}
	return float64(totalBytes*8) / duration
}

func (bt *BitrateTracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-bt.windowSize)
	i := 0
	for ; i < len(bt.times); i++ {
		if bt.times[i].After(cutoff) {
			break
		}
	}
	bt.sizes = bt.sizes[i:]
	bt.times = bt.times[i:]
}
