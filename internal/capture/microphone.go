package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	apperrors "github.com/probewise/interview/internal/errors"
)

const framesPerBuffer = 1024

// Microphone captures the default input device through portaudio and spans
// the whole conversation as one continuous recording. Captured PCM is both
// emitted on Frames (for the streaming transcription pump) and appended to
// an artifact file whose location is reported on upload completion.
type Microphone struct {
	sampleRate int
	artifact   string
	callbacks  Callbacks

	mu      sync.Mutex
	state   State
	started time.Time
	stopped time.Time
	stream  *portaudio.Stream
	cancel  context.CancelFunc
	file    *os.File

	framesCh chan []byte
	doneCh   chan struct{}
}

// NewMicrophone creates a microphone recorder. artifactDir receives the raw
// PCM artifact file; callbacks may be zero.
func NewMicrophone(sampleRate int, artifactDir string, callbacks Callbacks) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCaptureFailed, "portaudio init")
	}
	if artifactDir == "" {
		artifactDir = os.TempDir()
	}
	m := &Microphone{
		sampleRate: sampleRate,
		artifact:   filepath.Join(artifactDir, fmt.Sprintf("interview-%d.pcm", time.Now().UnixMilli())),
		callbacks:  callbacks,
		state:      StateIdle,
		framesCh:   make(chan []byte, 100),
	}
	if callbacks.OnReadyToStart != nil {
		callbacks.OnReadyToStart()
	}
	return m, nil
}

// Frames returns the channel of captured PCM frames.
func (m *Microphone) Frames() <-chan []byte { return m.framesCh }

// State returns the current lifecycle state.
func (m *Microphone) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Elapsed returns time recorded so far.
func (m *Microphone) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateRecording:
		return time.Since(m.started)
	case StateStopped:
		return m.stopped.Sub(m.started)
	default:
		return 0
	}
}

// Start opens the default input stream and begins capturing.
func (m *Microphone) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateRecording {
		m.mu.Unlock()
		return nil
	}

	file, err := os.Create(m.artifact)
	if err != nil {
		m.mu.Unlock()
		return apperrors.Wrap(err, apperrors.CodeCaptureFailed, "create artifact file")
	}

	buf := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), framesPerBuffer, buf)
	if err != nil {
		_ = file.Close()
		m.mu.Unlock()
		return apperrors.Wrap(err, apperrors.CodeCaptureFailed, "open input stream")
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = file.Close()
		m.mu.Unlock()
		return apperrors.Wrap(err, apperrors.CodeCaptureFailed, "start input stream")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.stream = stream
	m.cancel = cancel
	m.file = file
	m.state = StateRecording
	m.started = time.Now()
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	go m.readLoop(runCtx, stream, buf, file)

	if m.callbacks.OnStarted != nil {
		m.callbacks.OnStarted()
	}
	return nil
}

func (m *Microphone) readLoop(ctx context.Context, stream *portaudio.Stream, buf []int16, file *os.File) {
	defer close(m.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := stream.Read(); err != nil {
			slog.Debug("microphone read error", "error", err)
			return
		}

		frame := make([]byte, len(buf)*2)
		for i, s := range buf {
			binary.LittleEndian.PutUint16(frame[i*2:], uint16(s))
		}
		if _, err := file.Write(frame); err != nil {
			slog.Warn("artifact write failed", "error", err)
		}

		select {
		case m.framesCh <- frame:
		default:
			slog.Debug("frame buffer full, dropping frame")
		}
	}
}

// Stop ends the recording, finalizes the artifact, and reports upload
// completion.
func (m *Microphone) Stop() error {
	m.mu.Lock()
	if m.state != StateRecording {
		m.mu.Unlock()
		return nil
	}
	m.state = StateStopped
	m.stopped = time.Now()
	cancel, stream, file, done := m.cancel, m.stream, m.file, m.doneCh
	m.mu.Unlock()

	cancel()
	<-done
	_ = stream.Stop()
	_ = stream.Close()
	_ = file.Close()
	_ = portaudio.Terminate()

	duration := m.stopped.Sub(m.started)
	slog.Info("capture stopped", "artifact", m.artifact, "duration", duration)

	if m.callbacks.OnStopped != nil {
		m.callbacks.OnStopped()
	}
	if m.callbacks.OnUploadComplete != nil {
		m.callbacks.OnUploadComplete(m.artifact, duration)
	}
	return nil
}
