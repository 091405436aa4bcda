// Package audio implements device capture on portaudio: one source per
// device, microphone plus an optional system loopback.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/minutier/minutier/internal/audio"
)

const framesPerBuffer = 1024

var systemKeywords = []string{"blackhole", "vb-cable", "loopback", "monitor", "soundflower"}
var micKeywords = []string{"microphone", "input", "mic", "built-in"}

// DeviceSource captures one portaudio input device into a bounded queue.
type DeviceSource struct {
	device     *portaudio.DeviceInfo
	origin     audio.Origin
	sampleRate int
	queue      *audio.FrameQueue

	mu       sync.Mutex
	stream   *portaudio.Stream
	cancel   context.CancelFunc
	stopOnce sync.Once
}

func newDeviceSource(dev *portaudio.DeviceInfo, origin audio.Origin, sampleRate, queueCapacity int) *DeviceSource {
	return &DeviceSource{
		device:     dev,
		origin:     origin,
		sampleRate: sampleRate,
		queue:      audio.NewFrameQueue(queueCapacity),
	}
}

func (s *DeviceSource) Frames() *audio.FrameQueue { return s.queue }

// Start opens the device at its native rate and spawns the read loop. Frames
// are resampled to the pipeline rate before they enter the queue.
func (s *DeviceSource) Start(ctx context.Context) error {
	deviceRate := int(s.device.DefaultSampleRate)
	if deviceRate <= 0 {
		deviceRate = s.sampleRate
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   s.device,
			Channels: 1,
			Latency:  s.device.DefaultLowInputLatency,
		},
		SampleRate:      float64(deviceRate),
		FramesPerBuffer: framesPerBuffer,
	}

	buf := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", audio.ErrDeviceUnavailable, s.device.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("%w: start %s: %v", audio.ErrDeviceUnavailable, s.device.Name, err)
	}

	readCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.stream = stream
	s.cancel = cancel
	s.mu.Unlock()

	go s.readLoop(readCtx, stream, buf, deviceRate)
	slog.Info("audio capture started",
		"device", s.device.Name, "origin", s.origin, "device_rate", deviceRate)
	return nil
}

func (s *DeviceSource) readLoop(ctx context.Context, stream *portaudio.Stream, buf []int16, deviceRate int) {
	defer s.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := stream.Read(); err != nil {
			slog.Debug("audio read error", "device", s.device.Name, "error", err)
			return
		}

		samples := append([]int16(nil), buf...)
		if deviceRate != s.sampleRate {
			samples = audio.Resample(samples, deviceRate, s.sampleRate)
		}
		s.queue.Push(audio.Frame{Samples: samples, Origin: s.origin})
	}
}

func (s *DeviceSource) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel, stream := s.cancel, s.stream
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		if stream != nil {
			_ = stream.Stop()
			_ = stream.Close()
		}
	})
}

// NewSourceFactory initializes portaudio and returns the factory that opens
// the best microphone plus, when requested, every system loopback device.
// preferredName pins the microphone choice to a device name substring.
func NewSourceFactory(sampleRate, queueCapacity int, preferredName string) (audio.SourceFactory, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}

	return func(systemAudio bool) ([]audio.Source, error) {
		devices, err := portaudio.Devices()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
		}

		var mic *portaudio.DeviceInfo
		var loopbacks []*portaudio.DeviceInfo
		for _, dev := range devices {
			if dev.MaxInputChannels < 1 {
				continue
			}
			switch classifyDevice(dev.Name) {
			case audio.OriginSystem:
				if systemAudio {
					loopbacks = append(loopbacks, dev)
				}
			case audio.OriginMic:
				if preferMic(dev.Name, mic, preferredName) {
					mic = dev
				}
			}
		}
		if mic == nil {
			return nil, fmt.Errorf("%w: no microphone found", audio.ErrDeviceUnavailable)
		}

		sources := []audio.Source{newDeviceSource(mic, audio.OriginMic, sampleRate, queueCapacity)}
		for _, dev := range loopbacks {
			sources = append(sources, newDeviceSource(dev, audio.OriginSystem, sampleRate, queueCapacity))
		}
		if systemAudio && len(loopbacks) == 0 {
			slog.Warn("system audio requested but no loopback device found")
		}
		return sources, nil
	}, nil
}

// classifyDevice buckets a device by name keywords: loopback drivers first,
// then microphones. Unrecognized devices are skipped.
func classifyDevice(name string) audio.Origin {
	lowered := strings.ToLower(name)
	for _, kw := range systemKeywords {
		if strings.Contains(lowered, kw) {
			return audio.OriginSystem
		}
	}
	for _, kw := range micKeywords {
		if strings.Contains(lowered, kw) {
			return audio.OriginMic
		}
	}
	return ""
}

// preferMic decides whether candidate should replace the current pick. An
// explicit preferred name wins, then built-in devices over external ones.
func preferMic(candidate string, current *portaudio.DeviceInfo, preferredName string) bool {
	if current == nil {
		return true
	}
	if preferredName != "" {
		candHas := strings.Contains(strings.ToLower(candidate), strings.ToLower(preferredName))
		currHas := strings.Contains(strings.ToLower(current.Name), strings.ToLower(preferredName))
		if candHas != currHas {
			return candHas
		}
	}
	for _, p := range []string{"macbook", "built-in"} {
		candHas := strings.Contains(strings.ToLower(candidate), p)
		currHas := strings.Contains(strings.ToLower(current.Name), p)
		if candHas && !currHas {
			return true
		}
	}
	return false
}
