package ui

import (
	"sync"
	"time"

	"github.com/coderag/docrag/internal/crawler"
)

// SpeedStats holds pages/sec metrics for display.
type SpeedStats struct {
	Current float64
	Avg     float64
	Peak    float64
}

// Stats is a snapshot of tracked crawl progress.
type Stats struct {
	Crawled    int
	Queued     int
	Failed     int
	CurrentURL string
	Speed      SpeedStats
}

// Tracker accumulates crawler.Progress updates into speed and throughput
// statistics for the renderers. Safe for concurrent use.
type Tracker struct {
	mu sync.RWMutex

	crawled    int
	queued     int
	failed     int
	currentURL string

	startTime     time.Time
	lastCrawled   int
	lastSpeedCalc time.Time
	currentSpeed  float64
	avgSpeed      float64
	peakSpeed     float64
	speedSamples  int
	sparkline     *Sparkline
}

// NewTracker creates a Tracker starting its clock now.
func NewTracker() *Tracker {
	now := time.Now()
	return &Tracker{
		startTime:     now,
		lastSpeedCalc: now,
		sparkline:     NewSparkline(60),
	}
}

// Update folds in the crawler's latest progress snapshot.
func (t *Tracker) Update(p crawler.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.crawled = p.Crawled
	t.queued = p.Queued
	t.failed = p.Failed
	if p.CurrentURL != "" {
		t.currentURL = p.CurrentURL
	}

	now := time.Now()
	elapsed := now.Sub(t.lastSpeedCalc)
	if elapsed < 500*time.Millisecond {
		return
	}

	delta := t.crawled - t.lastCrawled
	if delta > 0 {
		speed := float64(delta) / elapsed.Seconds()
		t.currentSpeed = speed

		t.speedSamples++
		if t.speedSamples == 1 {
			t.avgSpeed = speed
		} else {
			t.avgSpeed = 0.2*speed + 0.8*t.avgSpeed
		}
		if speed > t.peakSpeed {
			t.peakSpeed = speed
		}
		t.sparkline.Add(speed)
	}

	t.lastCrawled = t.crawled
	t.lastSpeedCalc = now
}

// Stats returns a snapshot of the tracked progress.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Stats{
		Crawled:    t.crawled,
		Queued:     t.queued,
		Failed:     t.failed,
		CurrentURL: t.currentURL,
		Speed: SpeedStats{
			Current: t.currentSpeed,
			Avg:     t.avgSpeed,
			Peak:    t.peakSpeed,
		},
	}
}

// Elapsed returns time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return time.Since(t.startTime)
}

// RenderSparkline renders the throughput sparkline at the given width.
func (t *Tracker) RenderSparkline(width int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sparkline.RenderWithWidth(width)
}
