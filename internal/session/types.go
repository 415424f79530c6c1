// Package session defines the interview session aggregate and its parts.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProbingIntensity bounds how many follow-up questions may be asked.
type ProbingIntensity string

const (
	IntensityNone     ProbingIntensity = "none"
	IntensityModerate ProbingIntensity = "moderate"
	IntensityDeep     ProbingIntensity = "deep"
)

// MaxProbes returns the probe cap for an intensity tier.
func (p ProbingIntensity) MaxProbes() int {
	switch p {
	case IntensityModerate:
		return 3
	case IntensityDeep:
		return 5
	default:
		return 0
	}
}

// Role identifies who produced a conversation thread entry.
type Role string

const (
	RolePrompter   Role = "prompter"
	RoleRespondent Role = "respondent"
)

// ThreadEntry is one exchange unit: a posed question or a respondent answer.
type ThreadEntry struct {
	Role    Role
	Content string
	At      time.Time
}

// SegmentKind tags the only segment type produced today.
const SegmentKind = "respondent-turn"

// Segment is one finalized user-speech turn. Created when the turn ends,
// immutable thereafter.
type Segment struct {
	Seq        int
	Question   string
	Start      time.Duration // offset from session origin
	End        time.Duration
	Transcript string
	Kind       string
}

// Duration returns the segment length.
func (s Segment) Duration() time.Duration { return s.End - s.Start }

// Gap is the derived interval between one segment's end and the next one's
// start: the AI-thinking latency exposed to analytics.
type Gap struct {
	AfterSeq int
	Start    time.Duration
	End      time.Duration
}

// Duration returns the gap length, never negative for well-formed sessions.
func (g Gap) Duration() time.Duration { return g.End - g.Start }

// CompletionReason explains why a conversation ended.
type CompletionReason string

const (
	ReasonMaxProbes   CompletionReason = "max-probes-reached"
	ReasonAISatisfied CompletionReason = "ai-satisfied"
	ReasonError       CompletionReason = "error"
)

// Config is the per-question interview configuration a session is created with.
type Config struct {
	QuestionID          string
	QuestionText        string
	ProbingInstructions string
	Intensity           ProbingIntensity
	MinTurn             time.Duration
	GraceWindow         time.Duration
}

// Session is the top-level aggregate. It is owned exclusively by the
// orchestrator; the accumulator is the only other writer, and only through
// its own operations. Everyone else gets snapshots.
type Session struct {
	ID     string
	Config Config
	Origin time.Time

	FullTranscript string
	Segments       []Segment
	Thread         []ThreadEntry

	ProbeCount int
	MaxProbes  int

	CompletionReason CompletionReason
	ArtifactLocation string
}

// New creates a session for a survey question. The id combines the question
// identifier with the creation timestamp so repeated attempts stay distinct.
func New(cfg Config, origin time.Time) *Session {
	qid := cfg.QuestionID
	if qid == "" {
		qid = "question"
	}
	return &Session{
		ID:        fmt.Sprintf("%s-%d-%s", qid, origin.UnixMilli(), uuid.NewString()[:8]),
		Config:    cfg,
		Origin:    origin,
		MaxProbes: cfg.Intensity.MaxProbes(),
	}
}

// AppendThread records an exchange unit in order.
func (s *Session) AppendThread(role Role, content string, at time.Time) {
	s.Thread = append(s.Thread, ThreadEntry{Role: role, Content: content, At: at})
}

// Gaps derives the processing gaps between consecutive segments.
func (s *Session) Gaps() []Gap {
	if len(s.Segments) < 2 {
		return nil
	}
	gaps := make([]Gap, 0, len(s.Segments)-1)
	for i := 1; i < len(s.Segments); i++ {
		gaps = append(gaps, Gap{
			AfterSeq: s.Segments[i-1].Seq,
			Start:    s.Segments[i-1].End,
			End:      s.Segments[i].Start,
		})
	}
	return gaps
}

// Elapsed returns time since the session origin.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.Origin)
}
