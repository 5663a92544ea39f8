// Package engine pkg/engine/engine.go simulates the audio pipeline: transport
// state, a synthesized source clip, and a periodic tick that derives latency
// and spectrum telemetry. Exactly one snapshot is current at any instant;
// readers always receive copies.
package engine

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cyberasio/core/pkg/metrics"
	"github.com/cyberasio/core/pkg/models"
)

const (
	// DefaultTickInterval is the cadence of telemetry recomputation (20 FPS).
	DefaultTickInterval = 50 * time.Millisecond

	// idleSpectrumLevel is the floor every bin settles at when not playing.
	idleSpectrumLevel = 0.1
)

var (
	ErrAlreadyStarted = errors.New("engine already started")
	ErrNotStarted     = errors.New("engine not started")
)

// SnapshotFunc receives each published snapshot. The snapshot is shared
// between subscribers and must be treated as read-only.
type SnapshotFunc func(models.MetricsSnapshot)

// Options configures an Engine. History and Collector are optional.
type Options struct {
	Config    models.AudioConfig
	Interval  time.Duration
	History   metrics.HistoryStore
	Collector *metrics.Collector
	Logger    *zap.Logger
}

// Engine drives the simulated audio pipeline. Only the tick loop and the
// transport methods write state; everything else reads through copies.
type Engine struct {
	mu           sync.RWMutex
	cfg          models.AudioConfig
	snapshot     models.MetricsSnapshot
	playing      bool
	position     int
	source       *Source
	activeDevice int
	started      bool

	subs   map[int]SnapshotFunc
	nextID int

	interval  time.Duration
	history   metrics.HistoryStore
	collector *metrics.Collector
	rng       *rand.Rand
	log       *zap.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an engine with the given options.
func New(opts Options) (*Engine, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	if opts.Interval <= 0 {
		opts.Interval = DefaultTickInterval
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Engine{
		cfg:          opts.Config,
		activeDevice: -1,
		subs:         make(map[int]SnapshotFunc),
		interval:     opts.Interval,
		history:      opts.History,
		collector:    opts.Collector,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		log:          opts.Logger,
		done:         make(chan struct{}),
	}, nil
}

// Start synthesizes the default source, publishes the initial snapshot, and
// launches the tick loop. An engine is single-use; Start after Stop fails.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()

	if e.started {
		e.mu.Unlock()

		return ErrAlreadyStarted
	}

	e.started = true
	e.source = NewRoarSource()
	e.position = 0
	e.calculateLatency()
	e.snapshot.Spectrum = idleSpectrum()
	e.snapshot.Playing = false
	cfg := e.cfg
	frames := e.source.Frames()
	e.mu.Unlock()

	e.log.Info("audio engine initialized",
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("buffer_size", cfg.BufferSize),
		zap.Int("bit_depth", cfg.BitDepth),
		zap.Int("source_frames", frames))

	e.wg.Add(1)

	go e.run(ctx)

	return nil
}

// Stop halts the tick loop and waits for it to exit. Safe to call more than
// once; the second call is a no-op.
func (e *Engine) Stop(ctx context.Context) error {
	e.stopOnce.Do(func() {
		close(e.done)
	})

	done := make(chan struct{})

	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the tick loop is running.
func (e *Engine) Ready() bool {
	select {
	case <-e.done:
		return false
	default:
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.started
}

// Play starts playback from the beginning of the source.
func (e *Engine) Play() {
	e.mu.Lock()
	e.playing = true
	e.position = 0
	e.mu.Unlock()

	e.log.Info("audio playback started")
}

// Pause halts playback keeping the current position.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.playing = false
	e.mu.Unlock()

	e.log.Info("audio playback paused")
}

// StopPlayback halts playback, rewinds, and clears the spectrum immediately
// rather than waiting for the next tick.
func (e *Engine) StopPlayback() {
	e.mu.Lock()
	e.playing = false
	e.position = 0
	e.snapshot.Playing = false
	e.snapshot.Spectrum = make([]float64, models.SpectrumBins)
	e.mu.Unlock()

	e.log.Info("audio playback stopped")
}

// Playing reports the transport state.
func (e *Engine) Playing() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.playing
}

// Snapshot returns a copy of the latest published metrics.
func (e *Engine) Snapshot() models.MetricsSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.snapshot.Clone()
}

// Config returns the current audio configuration.
func (e *Engine) Config() models.AudioConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.cfg
}

// SetConfig validates and applies new audio parameters. Latency is
// recalculated when a timing-relevant field changed.
func (e *Engine) SetConfig(cfg models.AudioConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	needsRecalc := cfg.SampleRate != e.cfg.SampleRate ||
		cfg.BufferSize != e.cfg.BufferSize ||
		cfg.BitDepth != e.cfg.BitDepth

	e.cfg = cfg

	if needsRecalc {
		e.calculateLatency()
		e.log.Info("audio configuration updated",
			zap.Int("sample_rate", cfg.SampleRate),
			zap.Int("buffer_size", cfg.BufferSize))
	}

	return nil
}

// SetActiveDevice records which device playback is routed to.
func (e *Engine) SetActiveDevice(id int) {
	e.mu.Lock()
	e.activeDevice = id
	e.mu.Unlock()

	e.log.Info("active audio device set", zap.Int("device_id", id))
}

// ActiveDevice returns the device playback is routed to, or -1.
func (e *Engine) ActiveDevice() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.activeDevice
}

// LoadFile simulates loading an audio file. Decoding real formats is out of
// scope; the synthesized source keeps playing regardless.
func (e *Engine) LoadFile(path string) error {
	e.mu.RLock()
	started := e.started
	e.mu.RUnlock()

	if !started {
		return ErrNotStarted
	}

	e.log.Info("loading audio file", zap.String("path", path))

	return nil
}

// LoadData simulates loading raw audio data.
func (e *Engine) LoadData(data []byte, format string) error {
	e.mu.RLock()
	started := e.started
	e.mu.RUnlock()

	if !started {
		return ErrNotStarted
	}

	e.log.Info("loading audio data",
		zap.Int("bytes", len(data)), zap.String("format", format))

	return nil
}

// Subscribe registers fn to receive every published snapshot. The returned
// func removes the registration and is safe to call more than once.
func (e *Engine) Subscribe(fn func(models.MetricsSnapshot)) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	e.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
		})
	}
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case now := <-ticker.C:
			e.tick(now)
		}
	}
}

// tick recomputes the snapshot: advance the playback position, derive the
// spectrum, and publish. The new snapshot is fully written before release.
func (e *Engine) tick(now time.Time) {
	e.mu.Lock()

	if e.playing && e.source != nil {
		samplesPerTick := int(float64(e.cfg.SampleRate) * e.interval.Seconds())

		e.position += samplesPerTick
		if e.position >= e.source.Frames() {
			e.position = 0 // loop
		}
	}

	spectrum := make([]float64, models.SpectrumBins)

	if e.playing {
		ms := float64(now.UnixMilli())

		for i := range spectrum {
			// Lower bins carry more energy; the time term keeps bars moving.
			base := math.Max(idleSpectrumLevel, 1.0-float64(i)/float64(models.SpectrumBins))
			random := 0.1 + 0.9*e.rng.Float64()
			timeFactor := 0.5 + 0.5*math.Sin(ms/100.0+float64(i)*0.5)
			spectrum[i] = base * random * timeFactor
		}
	} else {
		for i := range spectrum {
			spectrum[i] = idleSpectrumLevel
		}
	}

	snapshot := models.MetricsSnapshot{
		InputLatencyMs:  e.snapshot.InputLatencyMs,
		OutputLatencyMs: e.snapshot.OutputLatencyMs,
		TotalLatencyMs:  e.snapshot.TotalLatencyMs,
		Spectrum:        spectrum,
		Playing:         e.playing,
	}
	e.snapshot = snapshot

	published := snapshot.Clone()

	subs := make([]SnapshotFunc, 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	if e.history != nil {
		e.history.Add(now, published.TotalLatencyMs, published.Playing)
	}

	if e.collector != nil {
		e.collector.ObserveTick(published.TotalLatencyMs, published.Playing)
	}

	for _, fn := range subs {
		fn(published)
	}
}

// calculateLatency derives latency from the buffer size. Callers hold e.mu.
func (e *Engine) calculateLatency() {
	bufferMs := e.cfg.BufferLatencyMs()

	e.snapshot.InputLatencyMs = bufferMs
	e.snapshot.OutputLatencyMs = bufferMs
	e.snapshot.TotalLatencyMs = bufferMs * 2
}

// Position returns the playback position in frames.
func (e *Engine) Position() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.position
}

func idleSpectrum() []float64 {
	spectrum := make([]float64, models.SpectrumBins)

	for i := range spectrum {
		spectrum[i] = idleSpectrumLevel
	}

	return spectrum
}
