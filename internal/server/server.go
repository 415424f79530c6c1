package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/probewise/interview/internal/intercept"
	"github.com/probewise/interview/internal/orchestrator"
	"github.com/probewise/interview/internal/session"
	"github.com/probewise/interview/internal/state"
	"github.com/probewise/interview/internal/trace"
)

// RecordLoader reads back persisted interview records for the review API.
type RecordLoader interface {
	LoadRecord(ctx context.Context, id string) (*session.Session, error)
}

// CaptureControl is the native recording path the host page's own handlers
// call. Stop is the guarded entry point and is refused mid-conversation.
type CaptureControl interface {
	Start(ctx context.Context) error
	Stop() error
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	// Prune old timestamps
	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections. It is also the display
// sink: the orchestrator's signals fan out to every connected page.
type Server struct {
	mu         sync.RWMutex
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter

	orch        *orchestrator.Orchestrator
	interceptor *intercept.Interceptor
	records     RecordLoader
	capture     CaptureControl
}

// New creates a server with no orchestrator attached yet. The server must
// exist before the orchestrator so it can serve as its display sink; Bind
// completes the loop.
func New() *Server {
	return &Server{
		conns:      make(map[*websocket.Conn]struct{}),
		rateLimits: make(map[*websocket.Conn]*rateLimiter),
	}
}

// Bind attaches the orchestrator, the click interceptor, and the optional
// record loader, and starts broadcasting state transitions.
func (s *Server) Bind(orch *orchestrator.Orchestrator, ic *intercept.Interceptor, records RecordLoader, capture CaptureControl) {
	s.mu.Lock()
	s.orch = orch
	s.interceptor = ic
	s.records = records
	s.capture = capture
	s.mu.Unlock()

	orch.Machine().Subscribe(state.ObserverFunc(func(_, to state.State, _ any) {
		flags := orch.Machine().Flags()
		s.broadcast(StateMessage{
			Type:                 "state",
			State:                string(to),
			IsRecording:          flags.IsRecording,
			IsConversationActive: flags.IsConversationActive,
			IsProcessing:         flags.IsProcessing,
			HasError:             flags.HasError,
		})
	}))
}

// UISink implementation. Failures writing to any one page never propagate;
// the orchestrator must not notice a slow or dead client.

func (s *Server) ShowQuestion(text string) {
	s.broadcast(QuestionMessage{Type: "show_question", Text: text})
}

func (s *Server) ShowProcessing() { s.broadcast(SignalMessage{Type: "processing"}) }

func (s *Server) HideProcessing() { s.broadcast(SignalMessage{Type: "hide_processing"}) }

func (s *Server) ShowComplete() { s.broadcast(SignalMessage{Type: "complete"}) }

func (s *Server) ResetControl() { s.broadcast(SignalMessage{Type: "reset_control"}) }

func (s *Server) broadcast(msg any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.conns {
		go func(c *websocket.Conn) {
			ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
			defer cancel()
			_ = wsjson.Write(ctx, c, msg)
		}(conn)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("GET /api/records/{id}", s.handleRecord)
	mux.HandleFunc("POST /api/recording/start", s.handleRecordingStart)
	mux.HandleFunc("POST /api/recording/stop", s.handleRecordingStop)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	// Get trace context from HTTP upgrade request
	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		// Check rate limit
		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, RateLimitedMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		switch base.Type {
		case "click":
			var click ClickMessage
			if err := json.Unmarshal(msg, &click); err != nil {
				continue
			}
			ctx := baseCtx
			if click.TraceID != "" {
				tc := trace.Context{TraceID: click.TraceID, SpanID: ""}
				tc = trace.NewChild(tc)
				ctx = trace.WithContext(ctx, tc)
			} else {
				ctx, _ = trace.EnsureContext(ctx)
			}
			s.handleClick(ctx, conn, click.Descriptor)
		}
	}
}

func (s *Server) handleClick(ctx context.Context, conn *websocket.Conn, wire DescriptorWire) {
	ctx, span := trace.StartSpan(ctx, "handle_click")
	defer span.End()

	s.mu.RLock()
	ic := s.interceptor
	s.mu.RUnlock()
	if ic == nil {
		return
	}

	verdict := ic.HandleClick(descriptorFromWire(wire))
	span.SetAttr("suppress", verdict.Suppress)
	trace.Logger(ctx).Debug("click verdict",
		"suppress", verdict.Suppress, "intent", verdict.Intent, "rule", verdict.Rule)

	_ = wsjson.Write(ctx, conn, VerdictMessage{
		Type:     "verdict",
		Suppress: verdict.Suppress,
		Intent:   string(verdict.Intent),
		Rule:     string(verdict.Rule),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	orch := s.orch
	s.mu.RUnlock()
	if orch == nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	snap := orch.SnapshotView()
	transcriptText := snap.FullTranscript
	if len(transcriptText) > TranscriptPreviewLimit {
		transcriptText = transcriptText[:TranscriptPreviewLimit] + "..."
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id":       snap.SessionID,
		"state":            string(snap.State),
		"current_question": snap.CurrentQuestion,
		"probe_count":      snap.ProbeCount,
		"segment_count":    snap.SegmentCount,
		"transcript":       transcriptText,
	})
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	records := s.records
	s.mu.RUnlock()
	if records == nil {
		http.Error(w, "record store disabled", http.StatusNotFound)
		return
	}

	sess, err := records.LoadRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		trace.Logger(r.Context()).Debug("record lookup failed", "error", err)
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}

	type segmentView struct {
		Seq        int    `json:"seq"`
		Question   string `json:"question"`
		Transcript string `json:"transcript"`
		StartMs    int64  `json:"start_ms"`
		EndMs      int64  `json:"end_ms"`
	}
	segments := make([]segmentView, 0, len(sess.Segments))
	for _, seg := range sess.Segments {
		segments = append(segments, segmentView{
			Seq:        seg.Seq,
			Question:   seg.Question,
			Transcript: seg.Transcript,
			StartMs:    seg.Start.Milliseconds(),
			EndMs:      seg.End.Milliseconds(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":                sess.ID,
		"question_id":       sess.Config.QuestionID,
		"question_text":     sess.Config.QuestionText,
		"completion_reason": string(sess.CompletionReason),
		"probe_count":       sess.ProbeCount,
		"max_probes":        sess.MaxProbes,
		"transcript":        sess.FullTranscript,
		"artifact_location": sess.ArtifactLocation,
		"segments":          segments,
	})
}

// handleRecordingStart is the native start path: the host page's own record
// handler calls it, and the capture component's started callback is what
// actually begins the conversation.
func (s *Server) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	capture := s.capture
	s.mu.RUnlock()
	if capture == nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	if err := capture.Start(r.Context()); err != nil {
		trace.Logger(r.Context()).Error("recording start failed", "error", err)
		http.Error(w, "recording start failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "recording_started"})
}

// handleRecordingStop goes through the guarded stop, which refuses while a
// conversation is active. Clicks never reach here mid-conversation when the
// interception layer works, so the refusal is the backstop.
func (s *Server) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	capture := s.capture
	s.mu.RUnlock()
	if capture == nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	if err := capture.Stop(); err != nil {
		trace.Logger(r.Context()).Warn("recording stop refused", "error", err)
		http.Error(w, "stop refused while conversation is active", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "recording_stopped"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func descriptorFromWire(wire DescriptorWire) intercept.Descriptor {
	d := intercept.Descriptor{
		ID:      wire.ID,
		Tag:     wire.Tag,
		Label:   wire.Label,
		Title:   wire.Title,
		Classes: wire.Classes,
	}
	for _, anc := range wire.Ancestors {
		d.Ancestors = append(d.Ancestors, descriptorFromWire(anc))
	}
	return d
}
