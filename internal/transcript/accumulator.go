// Package transcript maintains the append-only session transcript and the
// per-segment attribution watermark.
package transcript

import (
	"strings"
	"sync"
	"time"

	"github.com/probewise/interview/internal/session"
)

// Event is one incremental fragment from the streaming channel.
type Event struct {
	Text    string
	IsFinal bool
}

// Accumulator owns the full transcript of one session. Final fragments are
// appended; the watermark marks how much of the transcript has already been
// attributed to closed segments. CloseSegment reads the delta and advances
// the watermark inside one critical section: reading the delta at any other
// time relative to the advance loses or duplicates fragments.
type Accumulator struct {
	mu        sync.Mutex
	sess      *session.Session
	watermark int
	partial   string
}

// NewAccumulator binds an accumulator to the session it feeds.
func NewAccumulator(sess *session.Session) *Accumulator {
	return &Accumulator{sess: sess}
}

// Ingest applies one streaming event. Final text is appended to the full
// transcript; interim text is only remembered for display.
func (a *Accumulator) Ingest(ev Event) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !ev.IsFinal {
		a.partial = text
		return
	}

	a.partial = ""
	if a.sess.FullTranscript == "" {
		a.sess.FullTranscript = text
		return
	}
	a.sess.FullTranscript += " " + text
}

// CurrentSegmentDelta returns the transcript suffix not yet attributed to a
// closed segment.
func (a *Accumulator) CurrentSegmentDelta() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return strings.TrimSpace(a.sess.FullTranscript[a.watermark:])
}

// Partial returns the most recent interim fragment, if any.
func (a *Accumulator) Partial() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.partial
}

// FullTranscript returns a snapshot of the accumulated transcript.
func (a *Accumulator) FullTranscript() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sess.FullTranscript
}

// CloseSegment snapshots the current delta as an immutable segment, advances
// the watermark to the transcript's present length, appends the segment to
// the session, and pushes a respondent entry onto the conversation thread.
func (a *Accumulator) CloseSegment(question string, start, end time.Duration) session.Segment {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Delta and watermark move together; the watermark must reflect the
	// transcript exactly as it stood when this segment closed.
	delta := strings.TrimSpace(a.sess.FullTranscript[a.watermark:])
	a.watermark = len(a.sess.FullTranscript)
	a.partial = ""

	if n := len(a.sess.Segments); n > 0 {
		prev := a.sess.Segments[n-1]
		if start < prev.End {
			start = prev.End
		}
		if end <= start {
			end = start + time.Nanosecond
		}
	}

	seg := session.Segment{
		Seq:        len(a.sess.Segments) + 1,
		Question:   question,
		Start:      start,
		End:        end,
		Transcript: delta,
		Kind:       session.SegmentKind,
	}
	a.sess.Segments = append(a.sess.Segments, seg)
	a.sess.AppendThread(session.RoleRespondent, delta, a.sess.Origin.Add(end))
	return seg
}
