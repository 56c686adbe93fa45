package player

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/reelin-cli/reelin/filesystem"
	"github.com/spf13/afero"
)

// sampleInterval drives the periodic position callback, roughly 10 Hz.
const sampleInterval = 100 * time.Millisecond

// speakerRate is the fixed output rate; every asset is resampled onto it.
const speakerRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

// ensureSpeaker initializes the audio device exactly once per process.
func ensureSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerRate, speakerRate.N(time.Second/10))
	})
	return speakerErr
}

// Native is the in-process playback backend: it decodes the asset
// itself and owns the resample/pause/volume chain feeding the speaker.
type Native struct {
	emit func(Event)

	mu         sync.Mutex // guards the fields below across load/stop
	file       afero.File
	streamer   beep.StreamSeekCloser
	format     beep.Format
	resampler  *beep.Resampler
	ctrl       *beep.Ctrl
	volume     *effects.Volume
	sampleStop chan struct{}

	vol   float64
	muted bool
	speed float64
}

// NewNative creates an in-process backend with unity volume and speed.
func NewNative(emit func(Event)) *Native {
	return &Native{emit: emit, vol: 1, speed: 1}
}

// Kind reports the backend class.
func (n *Native) Kind() Kind {
	return KindNative
}

// decode selects a decoder by extension. An asset the pipeline has no
// decoder for is a load failure, not a crash; the caller surfaces it.
func decode(ext string, f afero.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch ext {
	case ".mp3":
		return mp3.Decode(f)
	case ".wav":
		return wav.Decode(f)
	case ".flac":
		return flac.Decode(f)
	case ".ogg", ".oga":
		return vorbis.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("no decoder for %q", ext)
	}
}

// Load decodes the asset and starts playback. Duration becomes known as
// part of the ready transition, which fires exactly once per load and
// begins playback automatically. The periodic sampling callback is torn
// down and reattached so it never observes a stale source.
func (n *Native) Load(path string) error {
	if err := ensureSpeaker(); err != nil {
		return fmt.Errorf("audio device: %w", err)
	}

	// Release any previous source before attaching the new one.
	n.teardown()

	f, err := filesystem.API().Open(path)
	if err != nil {
		return fmt.Errorf("open asset: %w", err)
	}

	streamer, format, err := decode(strings.ToLower(filepath.Ext(path)), f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("load asset: %w", err)
	}

	n.mu.Lock()
	n.file = f
	n.streamer = streamer
	n.format = format
	n.resampler = beep.ResampleRatio(4, n.ratio(), streamer)
	n.ctrl = &beep.Ctrl{Streamer: n.resampler}
	n.volume = &effects.Volume{
		Streamer: n.ctrl,
		Base:     2,
		Volume:   gain(n.vol),
		Silent:   n.muted || n.vol == 0,
	}
	chain := n.volume
	duration := format.SampleRate.D(streamer.Len()).Seconds()
	n.mu.Unlock()

	speaker.Clear()
	speaker.Play(beep.Seq(chain, beep.Callback(func() {
		n.emit(EndOfMedia())
	})))

	// Ready transition: duration known, loaded, auto-play.
	n.emit(DurationKnown(duration))
	n.emit(LoadStateChanged(true))
	n.emit(PlayStateChanged(true))

	n.startSampling()
	return nil
}

// ratio converts the asset rate onto the speaker rate, scaled by speed.
func (n *Native) ratio() float64 {
	rate := n.format.SampleRate
	if rate == 0 {
		rate = speakerRate
	}
	return float64(rate) / float64(speakerRate) * n.speed
}

// gain maps a normalized 0..1 volume onto the exponential dB-like scale
// the volume effect expects (base 2: 0.5 is one notch quieter).
func gain(volume float64) float64 {
	if volume <= 0 {
		return 0
	}
	return math.Log2(volume)
}

// startSampling attaches the ~10 Hz position callback for the current source.
func (n *Native) startSampling() {
	n.stopSampling()

	stop := make(chan struct{})
	n.mu.Lock()
	n.sampleStop = stop
	n.mu.Unlock()

	go func() {
		ticker := time.NewTicker(sampleInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				n.mu.Lock()
				streamer := n.streamer
				format := n.format
				n.mu.Unlock()

				if streamer == nil {
					continue
				}

				speaker.Lock()
				pos := format.SampleRate.D(streamer.Position()).Seconds()
				speaker.Unlock()

				n.emit(TimeUpdated(pos))
			}
		}
	}()
}

// stopSampling detaches the position callback if one is attached.
func (n *Native) stopSampling() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sampleStop != nil {
		close(n.sampleStop)
		n.sampleStop = nil
	}
}

// Play resumes playback.
func (n *Native) Play() error {
	return n.setPaused(false)
}

// Pause suspends playback.
func (n *Native) Pause() error {
	return n.setPaused(true)
}

// Toggle inverts the suspension state.
func (n *Native) Toggle() error {
	n.mu.Lock()
	ctrl := n.ctrl
	n.mu.Unlock()

	if ctrl == nil {
		return nil
	}

	speaker.Lock()
	ctrl.Paused = !ctrl.Paused
	playing := !ctrl.Paused
	speaker.Unlock()

	n.emit(PlayStateChanged(playing))
	return nil
}

func (n *Native) setPaused(paused bool) error {
	n.mu.Lock()
	ctrl := n.ctrl
	n.mu.Unlock()

	if ctrl == nil {
		return nil
	}

	speaker.Lock()
	ctrl.Paused = paused
	speaker.Unlock()

	n.emit(PlayStateChanged(!paused))
	return nil
}

// Seek moves playback to an absolute position in seconds, clamped to
// the asset's length.
func (n *Native) Seek(seconds float64) error {
	n.mu.Lock()
	streamer := n.streamer
	format := n.format
	n.mu.Unlock()

	if streamer == nil {
		return nil
	}

	speaker.Lock()
	target := format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if target < 0 {
		target = 0
	}
	if max := streamer.Len() - 1; target > max {
		target = max
	}
	err := streamer.Seek(target)
	speaker.Unlock()

	if err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	n.emit(TimeUpdated(float64(target) / float64(format.SampleRate)))
	return nil
}

// SeekBy shifts the playback position by a relative amount of seconds.
func (n *Native) SeekBy(delta float64) error {
	n.mu.Lock()
	streamer := n.streamer
	format := n.format
	n.mu.Unlock()

	if streamer == nil {
		return nil
	}

	speaker.Lock()
	pos := format.SampleRate.D(streamer.Position()).Seconds()
	speaker.Unlock()

	return n.Seek(pos + delta)
}

// SetVolume applies a normalized 0..1 volume to the output chain.
func (n *Native) SetVolume(volume float64) error {
	n.mu.Lock()
	n.vol = volume
	vol := n.volume
	muted := n.muted
	n.mu.Unlock()

	if vol != nil {
		speaker.Lock()
		vol.Volume = gain(volume)
		vol.Silent = muted || volume == 0
		speaker.Unlock()
	}

	n.emit(VolumeChanged(volume))
	return nil
}

// SetMuted suppresses or restores audio output.
func (n *Native) SetMuted(muted bool) error {
	n.mu.Lock()
	n.muted = muted
	vol := n.volume
	volume := n.vol
	n.mu.Unlock()

	if vol != nil {
		speaker.Lock()
		vol.Silent = muted || volume == 0
		speaker.Unlock()
	}

	n.emit(MuteChanged(muted))
	return nil
}

// SetSpeed applies a playback rate multiplier by adjusting the resample ratio.
func (n *Native) SetSpeed(multiplier float64) error {
	if multiplier <= 0 {
		return fmt.Errorf("speed must be positive, got %v", multiplier)
	}

	n.mu.Lock()
	n.speed = multiplier
	resampler := n.resampler
	ratio := n.ratio()
	n.mu.Unlock()

	if resampler != nil {
		speaker.Lock()
		resampler.SetRatio(ratio)
		speaker.Unlock()
	}

	n.emit(SpeedChanged(multiplier))
	return nil
}

// Stop tears the pipeline down and releases the decoded source.
// Idempotent; safe to call when nothing was ever loaded.
func (n *Native) Stop() error {
	n.teardown()
	n.emit(PlayStateChanged(false))
	n.emit(LoadStateChanged(false))
	return nil
}

// teardown detaches the sampler, silences the speaker, and closes the source.
func (n *Native) teardown() {
	n.stopSampling()

	n.mu.Lock()
	streamer := n.streamer
	file := n.file
	n.streamer = nil
	n.file = nil
	n.resampler = nil
	n.ctrl = nil
	n.volume = nil
	n.mu.Unlock()

	if streamer != nil {
		speaker.Clear()
		_ = streamer.Close()
	}
	if file != nil {
		_ = file.Close()
	}
}
