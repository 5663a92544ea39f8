package engine

import (
	"math"
	"math/rand"
	"time"
)

const (
	toneFrequency  = 220.0 // A3
	toneSampleRate = 44100
	toneDuration   = 3.0
	toneChannels   = 2
	toneAmplitude  = 0.3

	fadeInSeconds  = 0.1
	fadeOutSeconds = 0.5
)

// Source holds a synthesized audio clip as interleaved stereo samples.
type Source struct {
	Name       string
	SampleRate int
	Channels   int

	samples []float64
}

// NewRoarSource synthesizes the default test clip: a 220 Hz tone with two
// harmonics and a noise layer under a fade envelope, meant to stand in for
// a T-Rex roar.
func NewRoarSource() *Source {
	numFrames := int(toneSampleRate * toneDuration)
	samples := make([]float64, numFrames*toneChannels)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < numFrames; i++ {
		t := float64(i) / toneSampleRate

		base := math.Sin(2 * math.Pi * toneFrequency * t)
		harmonic1 := 0.5 * math.Sin(2*math.Pi*toneFrequency*2*t)
		harmonic2 := 0.25 * math.Sin(2*math.Pi*toneFrequency*3*t)
		noise := 0.1 * (rng.Float64() - 0.5)

		envelope := 1.0
		if t < fadeInSeconds {
			envelope = t / fadeInSeconds
		}

		if t > toneDuration-fadeOutSeconds {
			envelope = (toneDuration - t) / fadeOutSeconds
		}

		sample := (base + harmonic1 + harmonic2 + noise) * envelope * toneAmplitude

		// Same signal on both channels
		samples[i*toneChannels] = sample
		samples[i*toneChannels+1] = sample
	}

	return &Source{
		Name:       "T-Rex Roar (Default)",
		SampleRate: toneSampleRate,
		Channels:   toneChannels,
		samples:    samples,
	}
}

// Frames returns the number of sample frames in the clip.
func (s *Source) Frames() int {
	if s.Channels == 0 {
		return 0
	}

	return len(s.samples) / s.Channels
}

// Samples returns the interleaved sample data.
func (s *Source) Samples() []float64 {
	return s.samples
}

// Duration returns the clip length.
func (s *Source) Duration() time.Duration {
	if s.SampleRate == 0 {
		return 0
	}

	seconds := float64(s.Frames()) / float64(s.SampleRate)

	return time.Duration(seconds * float64(time.Second))
}
