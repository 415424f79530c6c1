// Package deepgram adapts Deepgram's websocket listen API to the streaming
// transcription contract.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/probewise/interview/internal/transcribe"
)

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
}

// Provider implements transcribe.Provider for Deepgram.
type Provider struct {
	cfg Config
}

// NewProvider creates a Deepgram provider.
func NewProvider(cfg Config) *Provider {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	return &Provider{cfg: cfg}
}

// Open dials the listen endpoint and returns a live session.
func (p *Provider) Open(ctx context.Context, cfg transcribe.StreamConfig) (transcribe.Session, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return nil, errors.New("deepgram API key is not configured")
	}

	wsURL, err := buildListenURL(p.cfg, cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("connect deepgram websocket: %w", err)
	}

	session := &streamSession{
		conn:   conn,
		events: make(chan transcribe.Event, 64),
		out:    make(chan outMessage, 32),
		done:   make(chan struct{}),
	}

	session.wg.Add(2)
	go session.readLoop()
	go session.writeLoop()
	go func() {
		session.wg.Wait()
		close(session.events)
		close(session.done)
		_ = conn.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

type outMessage struct {
	binary  bool
	payload []byte
}

type streamSession struct {
	conn *websocket.Conn

	events chan transcribe.Event
	out    chan outMessage
	done   chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeSendOnce sync.Once
	closeOnce     sync.Once
	sendMu        sync.RWMutex
	sendClosed    bool
}

func (s *streamSession) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	copied := append([]byte(nil), chunk...)
	return s.enqueue(outMessage{binary: true, payload: copied})
}

// KeepAlive sends the provider's idle-timeout suppression frame.
func (s *streamSession) KeepAlive() error {
	return s.enqueue(outMessage{payload: []byte(`{"type":"KeepAlive"}`)})
}

// enqueue holds the read lock across the channel send. CloseSend closes out
// under the write lock, so a sender past the flag check can never race the
// close; the write loop keeps draining, which bounds how long the lock is
// held.
func (s *streamSession) enqueue(msg outMessage) error {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.sendClosed {
		return errors.New("audio stream is already closed")
	}

	select {
	case s.out <- msg:
		return nil
	case <-s.done:
		if err := s.waitErr(); err != nil {
			return err
		}
		return errors.New("session closed")
	}
}

func (s *streamSession) CloseSend() error {
	s.closeSendOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.out)
		s.sendMu.Unlock()
	})
	return nil
}

func (s *streamSession) Events() <-chan transcribe.Event {
	return s.events
}

func (s *streamSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *streamSession) Close() error {
	s.closeOnce.Do(func() {
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *streamSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *streamSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *streamSession) writeLoop() {
	defer s.wg.Done()

	for msg := range s.out {
		kind := websocket.TextMessage
		if msg.binary {
			kind = websocket.BinaryMessage
		}
		if err := s.conn.WriteMessage(kind, msg.payload); err != nil {
			s.setErr(fmt.Errorf("send to provider: %w", err))
			// Break the read loop too, so pending senders unblock via done.
			_ = s.conn.Close()
			return
		}
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.setErr(fmt.Errorf("close stream: %w", err))
	}
}

func (s *streamSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("read provider event: %w", err))
			return
		}

		var response listenResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}

		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "provider returned an unknown error"
			}
			s.setErr(errors.New(message))
			return
		}

		text := extractTranscript(response)
		if text == "" {
			continue
		}

		s.emit(transcribe.Event{
			Text:    text,
			IsFinal: response.IsFinal || response.SpeechFinal,
		})
	}
}

// emit blocks until the consumer takes the event. Transcript fragments must
// never be dropped under backpressure; the consumer drains events until the
// channel closes, so the send always completes.
func (s *streamSession) emit(event transcribe.Event) {
	select {
	case s.events <- event:
	case <-s.done:
	}
}

type listenResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func extractTranscript(response listenResponse) string {
	if len(response.Channel.Alternatives) > 0 {
		return strings.TrimSpace(response.Channel.Alternatives[0].Transcript)
	}
	return ""
}

func buildListenURL(providerCfg Config, streamCfg transcribe.StreamConfig) (string, error) {
	base := strings.TrimSpace(providerCfg.APIBaseURL)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid API base URL: %w", err)
	}

	if streamCfg.Encoding == "" {
		streamCfg.Encoding = "linear16"
	}
	if streamCfg.SampleRate <= 0 {
		streamCfg.SampleRate = 16000
	}
	if streamCfg.Channels <= 0 {
		streamCfg.Channels = 1
	}

	query := listenURL.Query()
	query.Set("model", providerCfg.Model)
	query.Set("encoding", streamCfg.Encoding)
	query.Set("sample_rate", fmt.Sprintf("%d", streamCfg.SampleRate))
	query.Set("channels", fmt.Sprintf("%d", streamCfg.Channels))
	query.Set("interim_results", fmt.Sprintf("%t", streamCfg.InterimResults))
	query.Set("smart_format", fmt.Sprintf("%t", providerCfg.SmartFormat))
	if providerCfg.Language != "" {
		query.Set("language", providerCfg.Language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
