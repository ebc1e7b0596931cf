package dashboard

import (
	"sync"
	"time"
)

// PacerConfig holds the refresh interval retargeting parameters
type PacerConfig struct {
	Base            time.Duration // Configured interval, also the floor
	Max             time.Duration // Upper bound of the interval
	TargetLoad      float64       // Share of the interval a refresh may take (e.g. 0.2)
	VariancePercent float64       // Skip retargeting above this duration variance
	MaximumStep     float64       // Largest single increase in percent (e.g. 200)
	MinimumStep     float64       // Largest single decrease in percent (e.g. 50)
	BufferSize      int           // Refreshes averaged per retarget
}

// DefaultPacerConfig derives retargeting parameters from a base interval.
func DefaultPacerConfig(base time.Duration) PacerConfig {
	return PacerConfig{
		Base:            base,
		Max:             10 * base,
		TargetLoad:      0.2,
		VariancePercent: 50.0,
		MaximumStep:     200.0,
		MinimumStep:     50.0,
		BufferSize:      3,
	}
}

// Pacer stretches the refresh interval when the node is slow so that
// refreshing never occupies more than TargetLoad of the time, and shrinks
// it back toward Base when the node recovers.
type Pacer struct {
	mu           sync.Mutex
	config       PacerConfig
	interval     time.Duration
	timeBuffer   []float64 // Refresh durations in seconds
	lastRetarget time.Time
}

// NewPacer creates a pacer starting at config.Base
func NewPacer(config PacerConfig) *Pacer {
	if config.Base <= 0 {
		config.Base = DefaultRefreshInterval
	}
	if config.BufferSize < 1 {
		config.BufferSize = 1
	}
	if config.Max < config.Base {
		config.Max = config.Base
	}
	return &Pacer{
		config:     config,
		interval:   config.Base,
		timeBuffer: make([]float64, 0, config.BufferSize),
	}
}

// Interval returns the current refresh interval
func (p *Pacer) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Record adds the duration of a full refresh and retargets once the buffer
// is full.
func (p *Pacer) Record(took time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.timeBuffer = append(p.timeBuffer, took.Seconds())
	if len(p.timeBuffer) > p.config.BufferSize {
		p.timeBuffer = p.timeBuffer[1:]
	}
	if len(p.timeBuffer) == p.config.BufferSize {
		p.retarget()
	}
}

func (p *Pacer) retarget() {
	var total float64
	for _, t := range p.timeBuffer {
		total += t
	}
	averageTime := total / float64(len(p.timeBuffer))
	if averageTime <= 0 {
		return
	}

	var variance float64
	for _, t := range p.timeBuffer {
		diff := t - averageTime
		variance += diff * diff
	}
	variance /= float64(len(p.timeBuffer))
	if variance > averageTime*p.config.VariancePercent/100.0 {
		return
	}

	// interval at which refreshing takes exactly TargetLoad of the time
	desired := averageTime / p.config.TargetLoad
	adjustment := desired / p.interval.Seconds()
	if adjustment > p.config.MaximumStep/100.0 {
		adjustment = p.config.MaximumStep / 100.0
	} else if adjustment < p.config.MinimumStep/100.0 {
		adjustment = p.config.MinimumStep / 100.0
	}

	next := time.Duration(float64(p.interval) * adjustment)
	if next < p.config.Base {
		next = p.config.Base
	} else if next > p.config.Max {
		next = p.config.Max
	}

	change := float64(next) / float64(p.interval)
	if change < 0.99 || change > 1.01 {
		p.interval = next
		p.lastRetarget = time.Now()
		p.timeBuffer = p.timeBuffer[:0]
	}
}

// GetStats returns the pacer state
func (p *Pacer) GetStats() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	var averageTime float64
	if len(p.timeBuffer) > 0 {
		var total float64
		for _, t := range p.timeBuffer {
			total += t
		}
		averageTime = total / float64(len(p.timeBuffer))
	}

	return map[string]interface{}{
		"interval":      p.interval.String(),
		"base":          p.config.Base.String(),
		"average_time":  averageTime,
		"buffer_size":   len(p.timeBuffer),
		"last_retarget": p.lastRetarget,
		"target_load":   p.config.TargetLoad,
	}
}
