package engine

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberasio/core/pkg/metrics"
	"github.com/cyberasio/core/pkg/models"
)

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()

	if opts.Config == (models.AudioConfig{}) {
		opts.Config = models.DefaultAudioConfig()
	}

	e, err := New(opts)
	require.NoError(t, err)

	return e
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Options{
		Config: models.AudioConfig{SampleRate: 48000, BufferSize: 300, BitDepth: 24, Channels: 2},
	})
	assert.ErrorIs(t, err, models.ErrInvalidBufferSize)
}

func TestLatencyIdentity(t *testing.T) {
	tests := []struct {
		sampleRate int
		bufferSize int
	}{
		{44100, 64},
		{48000, 256},
		{96000, 512},
		{192000, 2048},
	}

	for _, tt := range tests {
		e := newTestEngine(t, Options{
			Config: models.AudioConfig{
				SampleRate: tt.sampleRate,
				BufferSize: tt.bufferSize,
				BitDepth:   24,
				Channels:   2,
			},
		})

		ctx := context.Background()
		require.NoError(t, e.Start(ctx))

		snap := e.Snapshot()
		want := float64(tt.bufferSize) / float64(tt.sampleRate) * 1000

		assert.InDelta(t, want, snap.InputLatencyMs, 1e-9)
		assert.InDelta(t, want, snap.OutputLatencyMs, 1e-9)
		assert.InDelta(t, 2*want, snap.TotalLatencyMs, 1e-9)

		require.NoError(t, e.Stop(ctx))
	}
}

func TestSpectrumBounds(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.Play()

	now := time.Now()

	for i := 0; i < 200; i++ {
		e.tick(now.Add(time.Duration(i) * DefaultTickInterval))

		snap := e.Snapshot()
		require.Len(t, snap.Spectrum, models.SpectrumBins)
		assert.True(t, snap.Playing)

		for bin, v := range snap.Spectrum {
			require.GreaterOrEqual(t, v, 0.0, "tick %d bin %d", i, bin)
			require.LessOrEqual(t, v, 1.0, "tick %d bin %d", i, bin)
		}
	}
}

func TestIdleSpectrumWithinOneTick(t *testing.T) {
	e := newTestEngine(t, Options{})

	e.Play()
	e.tick(time.Now())

	e.Pause()
	e.tick(time.Now())

	snap := e.Snapshot()
	assert.False(t, snap.Playing)
	require.Len(t, snap.Spectrum, models.SpectrumBins)

	for bin, v := range snap.Spectrum {
		assert.InDelta(t, 0.1, v, 1e-9, "bin %d", bin)
	}
}

func TestStopPlaybackClearsImmediately(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.source = NewRoarSource()

	e.Play()
	e.tick(time.Now())
	require.NotZero(t, e.Position())

	e.StopPlayback()

	// No tick in between: the snapshot already reflects the stop
	snap := e.Snapshot()
	assert.False(t, snap.Playing)
	assert.Zero(t, e.Position())
	require.Len(t, snap.Spectrum, models.SpectrumBins)

	for bin, v := range snap.Spectrum {
		assert.Zero(t, v, "bin %d", bin)
	}

	// Calling stop again changes nothing
	e.StopPlayback()
	assert.False(t, e.Playing())
}

func TestPlaybackPosition(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.source = NewRoarSource()

	e.Play()
	e.tick(time.Now())

	// 50ms at 48kHz
	assert.Equal(t, 2400, e.Position())

	e.Pause()
	e.tick(time.Now())
	assert.Equal(t, 2400, e.Position())

	e.Play()
	assert.Zero(t, e.Position())
}

func TestPlaybackPositionLoops(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.source = NewRoarSource()

	e.Play()
	e.position = e.source.Frames() - 1
	e.tick(time.Now())

	assert.Zero(t, e.Position())
}

func TestSnapshotIsolation(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.tick(time.Now())

	snap := e.Snapshot()
	snap.Spectrum[0] = 42

	assert.InDelta(t, 0.1, e.Snapshot().Spectrum[0], 1e-9)
}

func TestSetConfigRecalculatesLatency(t *testing.T) {
	e := newTestEngine(t, Options{})
	require.NoError(t, e.Start(context.Background()))

	defer func() {
		assert.NoError(t, e.Stop(context.Background()))
	}()

	cfg := models.AudioConfig{SampleRate: 96000, BufferSize: 512, BitDepth: 24, Channels: 2}
	require.NoError(t, e.SetConfig(cfg))

	snap := e.Snapshot()
	want := 512.0 / 96000.0 * 1000

	assert.InDelta(t, want, snap.InputLatencyMs, 1e-9)
	assert.InDelta(t, 2*want, snap.TotalLatencyMs, 1e-9)
	assert.Equal(t, cfg, e.Config())

	// Invalid configs are rejected without touching state
	bad := models.AudioConfig{SampleRate: 123, BufferSize: 512, BitDepth: 24, Channels: 2}
	assert.ErrorIs(t, e.SetConfig(bad), models.ErrInvalidSampleRate)
	assert.Equal(t, cfg, e.Config())
}

func TestSubscribe(t *testing.T) {
	e := newTestEngine(t, Options{})

	var frames []models.MetricsSnapshot

	unsubscribe := e.Subscribe(func(snap models.MetricsSnapshot) {
		frames = append(frames, snap)
	})

	e.tick(time.Now())
	e.tick(time.Now())
	require.Len(t, frames, 2)
	assert.Len(t, frames[0].Spectrum, models.SpectrumBins)

	unsubscribe()
	unsubscribe() // safe to call again

	e.tick(time.Now())
	assert.Len(t, frames, 2)
}

func TestTickRecordsHistoryAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	history := metrics.NewHistory(10)

	e := newTestEngine(t, Options{
		History:   history,
		Collector: metrics.NewCollector(reg),
	})

	e.Play()
	e.tick(time.Now())
	e.tick(time.Now())

	points := history.GetPoints()
	require.Len(t, points, 2)
	assert.True(t, points[0].Playing)
	assert.InDelta(t, e.Snapshot().TotalLatencyMs, points[0].TotalLatencyMs, 1e-9)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	var found bool

	for _, mf := range mfs {
		if mf.GetName() == "cyberasio_engine_ticks_total" {
			found = true

			require.Len(t, mf.GetMetric(), 1)
			assert.InDelta(t, 2.0, mf.GetMetric()[0].GetCounter().GetValue(), 1e-9)
		}
	}

	assert.True(t, found, "tick counter not registered")
}

func TestStartStopLifecycle(t *testing.T) {
	e := newTestEngine(t, Options{Interval: 5 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, e.Start(ctx))
	assert.True(t, e.Ready())
	assert.ErrorIs(t, e.Start(ctx), ErrAlreadyStarted)

	// Let the loop publish at least one snapshot
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, e.Snapshot().Spectrum, models.SpectrumBins)

	require.NoError(t, e.Stop(ctx))
	require.NoError(t, e.Stop(ctx)) // second stop is a no-op
	assert.False(t, e.Ready())
}

func TestLoadRequiresStart(t *testing.T) {
	e := newTestEngine(t, Options{})

	assert.ErrorIs(t, e.LoadFile("roar.wav"), ErrNotStarted)
	assert.ErrorIs(t, e.LoadData([]byte{1, 2}, "wav"), ErrNotStarted)

	ctx := context.Background()
	require.NoError(t, e.Start(ctx))

	defer func() {
		assert.NoError(t, e.Stop(ctx))
	}()

	assert.NoError(t, e.LoadFile("roar.wav"))
	assert.NoError(t, e.LoadData([]byte{1, 2}, "wav"))
}
