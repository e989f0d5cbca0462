package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omanicare/voice-client/internal/observability"
)

// Errors surfaced by the recording lifecycle
var (
	ErrMicrophone     = errors.New("could not acquire audio input device")
	ErrEmptyRecording = errors.New("recording produced no audio")
)

// State is the recorder's lifecycle state
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateRecorded   State = "recorded"
	StateProcessing State = "processing"
	StateError      State = "error"
)

// Event drives recorder state transitions
type Event string

const (
	EventStart   Event = "start"   // begin a recording session
	EventStop    Event = "stop"    // finalize the current recording
	EventAccept  Event = "accept"  // a validated file upload, bypassing recording
	EventSubmit  Event = "submit"  // hand the payload to the network client
	EventSucceed Event = "succeed" // submission completed
	EventFail    Event = "fail"    // any failure
	EventReset   Event = "reset"   // discard and return to idle
)

// Transition is the pure state machine underlying the recorder.
// It returns the next state, or an error when the event is not legal in
// the current state; it performs no side effects.
func Transition(s State, ev Event) (State, error) {
	switch ev {
	case EventStart:
		// A new recording resets a finished or failed session
		if s == StateIdle || s == StateRecorded || s == StateError {
			return StateRecording, nil
		}
	case EventStop:
		if s == StateRecording {
			return StateRecorded, nil
		}
	case EventAccept:
		if s == StateIdle || s == StateRecorded || s == StateError {
			return StateRecorded, nil
		}
	case EventSubmit:
		if s == StateRecorded {
			return StateProcessing, nil
		}
	case EventSucceed:
		if s == StateProcessing {
			return StateIdle, nil
		}
	case EventFail:
		return StateError, nil
	case EventReset:
		if s != StateRecording && s != StateProcessing {
			return StateIdle, nil
		}
	}
	return s, fmt.Errorf("invalid recorder event %q in state %q", ev, s)
}

// Format describes raw PCM frames delivered by a chunk source
type Format struct {
	SampleRate int
	Channels   int
}

// ChunkSource is an audio input device read in periodic slices.
// Start acquires the device and must fail when permission is denied or no
// device exists. ReadChunk blocks until roughly one cadence worth of audio
// is available. Capabilities lists encoded MIME types the source can emit;
// empty means raw 16-bit PCM frames that the recorder wraps into WAV.
type ChunkSource interface {
	Start() error
	ReadChunk() ([]byte, error)
	Stop() error
	Format() Format
	Capabilities() []string
}

// Recorder owns the recording lifecycle: it drains a chunk source on a
// fixed cadence, accumulates the slices, and finalizes them into a
// normalized payload. A recorder is exclusively bound to its source
// between Start and Stop.
type Recorder struct {
	mu       sync.RWMutex
	state    State
	source   ChunkSource
	interval time.Duration
	buf      *ChunkBuffer
	elapsed  int // seconds, monotonically increasing while recording
	payload  *Payload
	done     chan struct{}
	wg       sync.WaitGroup
	logger   zerolog.Logger
}

// NewRecorder creates a recorder draining source every interval
func NewRecorder(source ChunkSource, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = time.Second
	}
	return &Recorder{
		state:    StateIdle,
		source:   source,
		interval: interval,
		buf:      NewChunkBuffer(),
		logger:   observability.GetLogger().With().Str("component", "recorder").Logger(),
	}
}

// State returns the current lifecycle state
func (r *Recorder) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Elapsed returns the number of whole seconds recorded so far
func (r *Recorder) Elapsed() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.elapsed
}

// Payload returns the finalized payload, nil unless state is recorded or processing
func (r *Recorder) Payload() *Payload {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.payload
}

// Start acquires the input device and begins draining it in periodic
// slices. Acquisition failure surfaces ErrMicrophone and the recording
// path stays disabled until the user retries.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := Transition(r.state, EventStart)
	if err != nil {
		return err
	}

	if err := r.source.Start(); err != nil {
		r.state = StateError
		observability.RecordValidationFailure("microphone")
		return fmt.Errorf("%w: %v", ErrMicrophone, err)
	}

	r.state = next
	r.buf.Reset()
	r.elapsed = 0
	r.payload = nil
	r.done = make(chan struct{})

	r.wg.Add(1)
	go r.drain(r.done)

	observability.RecordRecordingStart()
	r.logger.Info().Dur("chunk_interval", r.interval).Msg("Recording started")
	return nil
}

// drain reads one chunk from the source per tick until stopped
func (r *Recorder) drain(done chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			chunk, err := r.source.ReadChunk()
			if err != nil {
				r.logger.Debug().Err(err).Msg("Chunk read failed")
				continue
			}
			if len(chunk) == 0 {
				continue
			}

			r.buf.Append(chunk)
			observability.RecordAudioBytes(len(chunk))

			r.mu.Lock()
			r.elapsed++
			r.mu.Unlock()

			if samples, err := SamplesFromBytes(chunk); err == nil {
				r.logger.Debug().Float64("rms", CalculateRMS(samples)).Int("bytes", len(chunk)).Msg("Chunk flushed")
			}
		}
	}
}

// Stop synchronously halts the source, cancels the flush timer, and
// finalizes the accumulated chunks into one payload. Zero accumulated
// chunks yield ErrEmptyRecording.
func (r *Recorder) Stop() (*Payload, error) {
	r.mu.Lock()
	next, err := Transition(r.state, EventStop)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	close(r.done)
	r.mu.Unlock()

	r.wg.Wait()
	if err := r.source.Stop(); err != nil {
		r.logger.Warn().Err(err).Msg("Error stopping audio source")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	observability.RecordRecordingEnd(r.elapsed)

	if r.buf.Chunks() == 0 {
		r.state = StateError
		return nil, ErrEmptyRecording
	}

	payload, err := r.finalize()
	if err != nil {
		r.state = StateError
		return nil, err
	}

	r.state = next
	r.payload = payload
	r.logger.Info().
		Int("seconds", r.elapsed).
		Int64("bytes", payload.Size()).
		Str("mime_type", payload.MIMEType).
		Msg("Recording finalized")
	return payload, nil
}

// finalize concatenates the buffered chunks and builds the payload using
// the negotiated MIME type. Raw PCM sources are normalized to the
// canonical sample rate and wrapped into a WAV container.
func (r *Recorder) finalize() (*Payload, error) {
	data := r.buf.Bytes()
	mimeType := PreferredMIME(r.source.Capabilities())
	filename := fmt.Sprintf("recording-%s%s", uuid.New().String(), extensionFor(mimeType))

	if mimeType == DefaultMIME {
		f := r.source.Format()
		samples, err := SamplesFromBytes(data)
		if err != nil {
			return nil, err
		}
		if f.SampleRate != CanonicalSampleRate {
			samples = Resample(samples, f.SampleRate, CanonicalSampleRate)
		}
		wav, err := EncodeWAV(BytesFromSamples(samples), CanonicalSampleRate, f.Channels)
		if err != nil {
			return nil, err
		}
		data = wav
	}

	return NewPayload(filename, mimeType, data)
}

// AcceptFile validates a user-supplied file and installs it as the
// session payload, bypassing the recording path
func (r *Recorder) AcceptFile(filename, declaredMIME string, data []byte) (*Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := Transition(r.state, EventAccept)
	if err != nil {
		return nil, err
	}

	payload, err := NewPayload(filename, declaredMIME, data)
	if err != nil {
		r.state = StateError
		return nil, err
	}

	r.state = next
	r.payload = payload
	r.elapsed = 0
	r.buf.Reset()
	r.logger.Info().
		Str("filename", filename).
		Str("mime_type", payload.MIMEType).
		Int64("bytes", payload.Size()).
		Msg("Audio file accepted")
	return payload, nil
}

// BeginSubmit marks the payload as handed off to the network client
func (r *Recorder) BeginSubmit() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := Transition(r.state, EventSubmit)
	if err != nil {
		return err
	}
	r.state = next
	return nil
}

// Finish completes a submission. A nil error returns the recorder to
// idle; any error parks it in the error state until the user retries.
func (r *Recorder) Finish(submitErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if submitErr != nil {
		r.state = StateError
	} else {
		r.state = StateIdle
	}
	r.payload = nil
	r.buf.Reset()
}

// Discard drops the current session and returns to idle. Not legal while
// recording or processing.
func (r *Recorder) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := Transition(r.state, EventReset)
	if err != nil {
		return err
	}
	r.state = next
	r.payload = nil
	r.elapsed = 0
	r.buf.Reset()
	return nil
}

// extensionFor maps a negotiated recording MIME type to a filename extension
func extensionFor(mimeType string) string {
	switch mimeType {
	case "audio/webm":
		return ".webm"
	case "audio/mp4":
		return ".m4a"
	case "audio/ogg":
		return ".ogg"
	default:
		return ".wav"
	}
}
