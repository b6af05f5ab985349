package progress

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/PabloViniegra/how-are-u/internal/constants"
)

// Blender animates the post-upload analysis phase. It is cosmetic: it never
// holds back a real result, it only keeps the bar moving until one arrives.
type Blender struct {
	steps       int
	minDuration time.Duration
	maxDuration time.Duration
	startDelay  time.Duration

	after func(time.Duration) <-chan time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a Blender.
type Option func(*Blender)

// WithSteps sets the number of intermediate events.
func WithSteps(n int) Option {
	return func(b *Blender) {
		if n > 0 {
			b.steps = n
		}
	}
}

// WithDuration sets the bounds the total animation length is drawn from.
func WithDuration(minDuration, maxDuration time.Duration) Option {
	return func(b *Blender) {
		b.minDuration = minDuration
		b.maxDuration = max(maxDuration, minDuration)
	}
}

// WithStartDelay sets the pause before the first simulated event.
func WithStartDelay(d time.Duration) Option {
	return func(b *Blender) {
		b.startDelay = d
	}
}

// WithRand sets the random source used for duration and jitter.
func WithRand(r *rand.Rand) Option {
	return func(b *Blender) {
		b.rnd = r
	}
}

// WithTimer replaces time.After, mainly for tests.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(b *Blender) {
		b.after = after
	}
}

// NewBlender creates a Blender with the default timing: 20 steps over 3-5
// seconds, starting 200ms after the upload finished.
func NewBlender(opts ...Option) *Blender {
	b := &Blender{
		steps:       constants.SimulationSteps,
		minDuration: constants.SimulationMinDuration,
		maxDuration: constants.SimulationMaxDuration,
		startDelay:  constants.SimulationStartDelay,
		after:       time.After,
		rnd:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)), //nolint:gosec // cosmetic animation
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Blender) float() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rnd.Float64()
}

// Simulation is a running animation started by Blender.Simulate.
type Simulation struct {
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	finishing bool
}

// Finish ends the animation early because the real result arrived: the final
// event at the end percentage is emitted and onComplete runs, unless the
// animation already completed. Finish blocks until the animation goroutine
// has exited, so it must not be called from the progress callback.
func (s *Simulation) Finish() {
	s.halt(true)
	<-s.done
}

// Abort stops the animation without emitting anything further.
func (s *Simulation) Abort() {
	s.halt(false)
	<-s.done
}

// Wait blocks until the animation has completed or been stopped.
func (s *Simulation) Wait() {
	<-s.done
}

// Done is closed once the animation goroutine has exited.
func (s *Simulation) Done() <-chan struct{} {
	return s.done
}

func (s *Simulation) halt(finish bool) {
	s.stopOnce.Do(func() {
		s.finishing = finish
		close(s.stop)
	})
}

// Simulate starts animating from startPercent to endPercent in a background
// goroutine. Every intermediate event stays within [startPercent,
// endPercent-1] and never goes below the previous one. After the last step a
// final event at exactly endPercent is emitted and onComplete is called once.
func (b *Blender) Simulate(onProgress func(UploadProgress), startPercent, endPercent int, onComplete func()) *Simulation {
	s := &Simulation{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go b.run(s, onProgress, float64(startPercent), float64(endPercent), onComplete)
	return s
}

func (b *Blender) run(s *Simulation, onProgress func(UploadProgress), start, end float64, onComplete func()) {
	defer close(s.done)

	duration := b.minDuration + time.Duration(b.float()*float64(b.maxDuration-b.minDuration))
	stepDuration := duration / time.Duration(b.steps)
	progressStep := (end - start) / float64(b.steps)
	ceiling := math.Max(end-1, start)
	last := start

	complete := func() {
		onProgress(UploadProgress{Loaded: 100, Total: 100, Percentage: int(end)})
		if onComplete != nil {
			onComplete()
		}
	}

	delay := b.startDelay
	for step := 0; ; step++ {
		select {
		case <-b.after(delay):
		case <-s.stop:
			if s.finishing {
				complete()
			}
			return
		}

		if step >= b.steps {
			complete()
			return
		}

		current := start + progressStep*float64(step)
		variance := b.float()*2 - 1
		percentage := math.Min(math.Max(current+variance, start), ceiling)
		percentage = math.Max(percentage, last)
		last = percentage

		onProgress(UploadProgress{
			Loaded:     int64(math.Round(percentage)),
			Total:      100,
			Percentage: int(math.Round(percentage)),
		})

		delay = time.Duration(float64(stepDuration) * (0.8 + b.float()*0.4))
	}
}
