package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// MicSource captures raw PCM from the default input device via PortAudio.
// It implements ChunkSource; each ReadChunk delivers one cadence worth of
// 16-bit little-endian samples.
type MicSource struct {
	mu     sync.Mutex
	format Format
	frames []int16
	stream *portaudio.Stream
	active bool
}

// NewMicSource creates a microphone source delivering chunkSeconds of
// audio per read at the given rate and channel count
func NewMicSource(sampleRate, channels, chunkSeconds int) *MicSource {
	if chunkSeconds <= 0 {
		chunkSeconds = 1
	}
	return &MicSource{
		format: Format{SampleRate: sampleRate, Channels: channels},
		frames: make([]int16, sampleRate*channels*chunkSeconds),
	}
}

// Start acquires the default input device. Failure here means permission
// was denied or no input device exists.
func (m *MicSource) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return fmt.Errorf("microphone source is already active")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize audio subsystem: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(
		m.format.Channels, 0,
		float64(m.format.SampleRate),
		len(m.frames),
		m.frames,
	)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open input device: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	m.stream = stream
	m.active = true
	return nil
}

// ReadChunk blocks until the frame buffer fills and returns the samples
// as little-endian PCM bytes
func (m *MicSource) ReadChunk() ([]byte, error) {
	m.mu.Lock()
	stream := m.stream
	active := m.active
	m.mu.Unlock()

	if !active || stream == nil {
		return nil, fmt.Errorf("microphone source is not active")
	}

	if err := stream.Read(); err != nil {
		return nil, fmt.Errorf("failed to read from input device: %w", err)
	}

	return BytesFromSamples(m.frames), nil
}

// Stop releases the input device
func (m *MicSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return nil
	}
	m.active = false

	var firstErr error
	if err := m.stream.Stop(); err != nil {
		firstErr = err
	}
	if err := m.stream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	m.stream = nil
	portaudio.Terminate()
	return firstErr
}

// Format reports the capture format
func (m *MicSource) Format() Format {
	return m.format
}

// Capabilities returns nil: the microphone delivers raw PCM frames and the
// recorder wraps them into WAV
func (m *MicSource) Capabilities() []string {
	return nil
}
