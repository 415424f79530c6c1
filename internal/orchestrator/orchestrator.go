package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/probewise/interview/internal/resilience"
	"github.com/probewise/interview/internal/session"
	"github.com/probewise/interview/internal/state"
	"github.com/probewise/interview/internal/syncx"
	"github.com/probewise/interview/internal/trace"
	"github.com/probewise/interview/internal/transcribe"
	"github.com/probewise/interview/internal/transcript"
)

// Config bundles the orchestrator's session and streaming settings.
type Config struct {
	Session session.Config
	Stream  transcribe.StreamConfig
	Pump    transcribe.PumpConfig
}

// Snapshot is the read-only view other collaborators get of the live
// conversation. Everything mutable stays inside the orchestrator.
type Snapshot struct {
	SessionID       string
	State           state.State
	CurrentQuestion string
	ProbeCount      int
	SegmentCount    int
	FullTranscript  string
}

// Orchestrator owns the session aggregate and coordinates capture,
// streaming transcription, and the follow-up decision endpoint. All waits
// are asynchronous; completion handlers re-check the turn epoch and discard
// stale results rather than apply them.
type Orchestrator struct {
	cfg      Config
	machine  *state.Machine
	capture  Capture
	provider transcribe.Provider
	decider  Decider
	ui       UISink
	records  RecordSink

	streamBreaker *resilience.Breaker
	snapshot      *syncx.RWGuard[Snapshot]

	mu              sync.Mutex
	ctx             context.Context
	artifact        string
	sess            *session.Session
	acc             *transcript.Accumulator
	turn            *turnState
	epoch           int
	pendingQuestion string
}

// turnState is the per-segment bookkeeping reset between turns.
type turnState struct {
	question    string
	start       time.Duration
	startedAt   time.Time
	stream      transcribe.Session
	cancelPump  context.CancelFunc
	pumpDone    chan struct{}
	consumeDone chan struct{}
	graceTimer  *time.Timer
	closing     bool
}

// New creates an orchestrator. records may be nil when persistence is
// disabled.
func New(cfg Config, machine *state.Machine, cap Capture, provider transcribe.Provider, decider Decider, ui UISink, records RecordSink) *Orchestrator {
	if cfg.Session.MinTurn <= 0 {
		cfg.Session.MinTurn = DefaultMinTurn
	}
	if cfg.Session.GraceWindow <= 0 {
		cfg.Session.GraceWindow = DefaultGraceWindow
	}
	if ui == nil {
		ui = NopUISink{}
	}
	o := &Orchestrator{
		cfg:           cfg,
		machine:       machine,
		capture:       cap,
		provider:      provider,
		decider:       decider,
		ui:            ui,
		records:       records,
		streamBreaker: resilience.NewBreaker(resilience.FastConfig()),
		snapshot:      syncx.NewGuard(Snapshot{State: state.Initializing}),
	}
	machine.Subscribe(state.ObserverFunc(func(_, to state.State, _ any) {
		o.snapshot.Write(func(s *Snapshot) { s.State = to })
	}))
	return o
}

// Machine exposes the authoritative state machine.
func (o *Orchestrator) Machine() *state.Machine { return o.machine }

// ConversationActive is the derived flag consumed by the interception layer
// and the capture stop guard. It is a pure getter over the state machine;
// there is no second, independently settable flag store.
func (o *Orchestrator) ConversationActive() bool {
	return o.machine.Flags().IsConversationActive
}

// Snapshot returns the current read-only view.
func (o *Orchestrator) SnapshotView() Snapshot { return o.snapshot.Get() }

// Ready marks the orchestrator ready for the first native start.
func (o *Orchestrator) Ready() {
	o.machine.Transition(state.Ready, nil)
}

// StartConversation begins the session. Valid exactly once, on the first
// real recording-start signal from the capture component; a second call
// while a conversation is active is a logged no-op.
func (o *Orchestrator) StartConversation(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "start_conversation")
	defer span.End()
	log := trace.Logger(ctx)

	o.mu.Lock()
	if o.sess != nil {
		o.mu.Unlock()
		log.Debug("duplicate conversation start ignored")
		return
	}
	now := time.Now()
	sess := session.New(o.cfg.Session, now)
	sess.AppendThread(session.RolePrompter, o.cfg.Session.QuestionText, now)
	o.sess = sess
	o.acc = transcript.NewAccumulator(sess)
	o.ctx = ctx
	o.mu.Unlock()

	log.Info("conversation started", "session", sess.ID, "max_probes", sess.MaxProbes)
	o.snapshot.Write(func(s *Snapshot) {
		s.SessionID = sess.ID
		s.CurrentQuestion = o.cfg.Session.QuestionText
	})
	o.ui.ShowQuestion(o.cfg.Session.QuestionText)

	if !o.openSegment(ctx, sess, o.cfg.Session.QuestionText) {
		o.endConversation(ctx, sess, session.ReasonError)
	}
}

// openSegment starts a fresh streaming channel and pump for one turn. The
// underlying continuous recording is not touched.
func (o *Orchestrator) openSegment(ctx context.Context, sess *session.Session, question string) bool {
	log := trace.Logger(ctx)

	stream, err := resilience.ExecuteWithResult(o.streamBreaker, func() (transcribe.Session, error) {
		return o.provider.Open(ctx, o.cfg.Stream)
	})
	if err != nil {
		log.Error("streaming channel open failed", "error", err)
		return false
	}

	pumpCtx, cancelPump := context.WithCancel(ctx)
	turn := &turnState{
		question:    question,
		start:       sess.Elapsed(time.Now()),
		startedAt:   time.Now(),
		stream:      stream,
		cancelPump:  cancelPump,
		pumpDone:    make(chan struct{}),
		consumeDone: make(chan struct{}),
	}

	o.mu.Lock()
	if o.sess != sess {
		// Conversation ended while the channel was being opened.
		o.mu.Unlock()
		cancelPump()
		_ = stream.Close()
		log.Debug("stale segment open discarded")
		return true
	}
	o.turn = turn
	acc := o.acc
	o.mu.Unlock()

	go func() {
		defer close(turn.pumpDone)
		if err := transcribe.Pump(pumpCtx, o.capture.Frames(), stream, o.cfg.Pump); err != nil {
			log.Warn("audio pump stopped", "error", err)
		}
	}()
	go func() {
		defer close(turn.consumeDone)
		for ev := range stream.Events() {
			acc.Ingest(transcript.Event{Text: ev.Text, IsFinal: ev.IsFinal})
		}
	}()

	o.machine.Transition(state.Recording, question)
	return true
}

// PauseForProcessing handles a stop-intent: close the current turn and ask
// the decision endpoint what to do next. Spuriously short turns are ignored
// so an accidental double-tap cannot truncate an answer.
func (o *Orchestrator) PauseForProcessing() {
	o.mu.Lock()
	sess, turn := o.sess, o.turn
	if sess == nil || turn == nil || turn.closing {
		o.mu.Unlock()
		slog.Debug("stop-intent with no open turn ignored")
		return
	}
	if elapsed := time.Since(turn.startedAt); elapsed < o.cfg.Session.MinTurn {
		o.mu.Unlock()
		slog.Debug("short-turn stop-intent ignored", "elapsed", elapsed, "floor", o.cfg.Session.MinTurn)
		return
	}
	turn.closing = true
	epoch := o.epoch
	ctx := o.ctx
	o.mu.Unlock()

	// Stop feeding audio so the provider can flush; the continuous
	// recording keeps running underneath.
	turn.cancelPump()
	o.ui.ShowProcessing()
	o.machine.Transition(state.AwaitingFinalTranscript, nil)

	// Grace window for trailing partial-to-final fragments.
	timer := time.AfterFunc(o.cfg.Session.GraceWindow, func() {
		o.finishTurn(ctx, epoch)
	})
	o.mu.Lock()
	if o.turn == turn {
		turn.graceTimer = timer
	} else {
		timer.Stop()
	}
	o.mu.Unlock()
}

// finishTurn closes the segment after the grace window and runs the
// decision step. A stale epoch means the conversation moved on (ended or
// errored) while the timer was pending; the completion is discarded.
func (o *Orchestrator) finishTurn(ctx context.Context, epoch int) {
	o.mu.Lock()
	if o.epoch != epoch || o.turn == nil || o.sess == nil {
		o.mu.Unlock()
		slog.Debug("stale turn completion discarded", "epoch", epoch)
		return
	}
	sess, turn, acc := o.sess, o.turn, o.acc
	o.turn = nil
	o.epoch++
	o.mu.Unlock()

	log := trace.Logger(ctx)

	_ = turn.stream.CloseSend()
	drainStream(turn.stream, StreamDrainTimeout)
	<-turn.consumeDone
	<-turn.pumpDone

	end := sess.Elapsed(time.Now())
	seg := acc.CloseSegment(turn.question, turn.start, end)
	log.Info("segment closed", "seq", seg.Seq, "duration", seg.Duration(), "chars", len(seg.Transcript))
	o.snapshot.Write(func(s *Snapshot) {
		s.SegmentCount = seg.Seq
		s.FullTranscript = acc.FullTranscript()
	})

	o.machine.Transition(state.Deciding, seg.Seq)

	// Reaching the probe cap short-circuits the network call entirely.
	if !o.shouldContinueProbing(sess) {
		log.Info("probe cap reached", "probes", sess.ProbeCount, "max", sess.MaxProbes)
		o.endConversation(ctx, sess, session.ReasonMaxProbes)
		return
	}

	history := make([]session.ThreadEntry, len(sess.Thread))
	copy(history, sess.Thread)
	d := o.decider.Decide(ctx, sess.Config, sess.ProbeCount, sess.MaxProbes, history)

	// The conversation may have ended while the call was in flight.
	o.mu.Lock()
	stale := o.sess != sess
	o.mu.Unlock()
	if stale {
		log.Debug("stale decision discarded")
		return
	}

	switch {
	case d.Err != nil:
		log.Error("decision failed, ending conversation", "error", d.Err)
		o.endConversation(ctx, sess, session.ReasonError)
	case !d.Continue:
		o.endConversation(ctx, sess, session.ReasonAISatisfied)
	default:
		o.askFollowUp(ctx, sess, d.NextQuestion)
	}
}

// askFollowUp surfaces the next question and arms the next turn.
func (o *Orchestrator) askFollowUp(ctx context.Context, sess *session.Session, question string) {
	now := time.Now()

	o.mu.Lock()
	if o.sess != sess {
		o.mu.Unlock()
		return
	}
	sess.ProbeCount++
	sess.AppendThread(session.RolePrompter, question, now)
	o.pendingQuestion = question
	o.mu.Unlock()

	trace.Logger(ctx).Info("follow-up question", "probe", sess.ProbeCount, "question", question)
	o.snapshot.Write(func(s *Snapshot) {
		s.CurrentQuestion = question
		s.ProbeCount = sess.ProbeCount
	})

	o.ui.ShowQuestion(question)
	o.ui.HideProcessing()
	o.ui.ResetControl()
	o.machine.Transition(state.ConversationActive, question)
}

// StartNewSegment handles a start-intent once a follow-up is showing. A
// start-intent arriving before the next question is ready (a race between
// the UI reset and user impatience) is an ignorable no-op.
func (o *Orchestrator) StartNewSegment() {
	o.mu.Lock()
	sess := o.sess
	question := o.pendingQuestion
	busy := o.turn != nil
	ctx := o.ctx
	o.pendingQuestion = ""
	o.mu.Unlock()

	if sess == nil || busy || question == "" {
		slog.Debug("start-intent with no pending question ignored")
		return
	}
	if !o.openSegment(ctx, sess, question) {
		o.endConversation(ctx, sess, session.ReasonError)
	}
}

// StopIntent routes an intercepted stop click to the pause entry point.
func (o *Orchestrator) StopIntent() { o.PauseForProcessing() }

// StartIntent routes an intercepted start click to the resume entry point.
func (o *Orchestrator) StartIntent() { o.StartNewSegment() }

// shouldContinueProbing is a pure function of configuration and probe count.
func (o *Orchestrator) shouldContinueProbing(sess *session.Session) bool {
	return sess.Config.Intensity != session.IntensityNone && sess.ProbeCount < sess.MaxProbes
}

// endConversation finalizes the session. The step ordering is a correctness
// requirement: transcription closes first, conversation-active flags clear
// second, UI signals third and fourth, and only then does the real stop
// reach the capture component. The stop guard would have blocked it any
// earlier, and an earlier stop could tear down resources the still-open
// streaming channel depends on.
func (o *Orchestrator) endConversation(ctx context.Context, sess *session.Session, reason session.CompletionReason) {
	o.mu.Lock()
	if o.sess != sess {
		o.mu.Unlock()
		slog.Debug("duplicate conversation end ignored")
		return
	}
	turn := o.turn
	o.sess = nil
	o.turn = nil
	o.epoch++
	o.pendingQuestion = ""
	o.mu.Unlock()

	log := trace.Logger(ctx)
	log.Info("ending conversation", "session", sess.ID, "reason", reason)

	// (1) stop transcription fully.
	if turn != nil {
		if turn.graceTimer != nil {
			turn.graceTimer.Stop()
		}
		turn.cancelPump()
		_ = turn.stream.Close()
		<-turn.consumeDone
		<-turn.pumpDone
	}

	// (2) clear conversation-active flags.
	o.machine.Transition(state.Complete, reason)

	// (3) hide the processing signal; (4) surface completion.
	o.ui.HideProcessing()
	o.ui.ShowComplete()

	// (5) the real stop, now that the guard predicate is false. The upload
	// completion callback fires inside this call and fills in the artifact
	// location before the record is persisted.
	if err := o.capture.ForceStop(); err != nil {
		log.Warn("capture stop failed", "error", err)
	}

	o.mu.Lock()
	sess.ArtifactLocation = o.artifact
	o.mu.Unlock()

	sess.CompletionReason = reason
	o.persist(ctx, sess)
}

// SetArtifactLocation records where the continuous recording artifact
// landed. Wired to the capture component's upload-completion callback,
// which fires inside the real stop, before the record is persisted.
func (o *Orchestrator) SetArtifactLocation(location string) {
	o.mu.Lock()
	o.artifact = location
	o.mu.Unlock()
}

// HandleCaptureFailure reacts to a catastrophic capture-component failure:
// the session moves to the terminal error state and the partial record is
// persisted so the platform can offer a retry.
func (o *Orchestrator) HandleCaptureFailure(ctx context.Context, err error) {
	o.mu.Lock()
	sess, turn := o.sess, o.turn
	o.sess = nil
	o.turn = nil
	o.epoch++
	o.mu.Unlock()

	trace.Logger(ctx).Error("capture component failed", "error", err)
	if turn != nil {
		if turn.graceTimer != nil {
			turn.graceTimer.Stop()
		}
		turn.cancelPump()
		_ = turn.stream.Close()
	}
	o.machine.Transition(state.Errored, err)
	o.ui.HideProcessing()

	if sess != nil {
		sess.CompletionReason = session.ReasonError
		o.persist(ctx, sess)
	}
}

func (o *Orchestrator) persist(ctx context.Context, sess *session.Session) {
	if o.records == nil {
		return
	}
	if err := o.records.SaveCompleted(ctx, sess); err != nil {
		trace.Logger(ctx).Error("failed to persist completion record", "error", err)
	}
}

// drainStream waits for the channel to finish flushing trailing events,
// force-closing it if the provider takes too long.
func drainStream(stream transcribe.Session, timeout time.Duration) {
	done := make(chan error, 1)
	go func() { done <- stream.Wait() }()

	select {
	case <-done:
	case <-time.After(timeout):
		_ = stream.Close()
		<-done
	}
}
