package session

import (
	"strings"
	"testing"
	"time"
)

func TestMaxProbes(t *testing.T) {
	tests := []struct {
		intensity ProbingIntensity
		want      int
	}{
		{IntensityNone, 0},
		{IntensityModerate, 3},
		{IntensityDeep, 5},
		{ProbingIntensity("bogus"), 0},
	}
	for _, tt := range tests {
		if got := tt.intensity.MaxProbes(); got != tt.want {
			t.Errorf("MaxProbes(%s) = %d, want %d", tt.intensity, got, tt.want)
		}
	}
}

func TestNewSession(t *testing.T) {
	origin := time.Now()
	sess := New(Config{QuestionID: "q42", Intensity: IntensityDeep}, origin)

	if !strings.HasPrefix(sess.ID, "q42-") {
		t.Errorf("ID = %q, want q42- prefix", sess.ID)
	}
	if sess.MaxProbes != 5 {
		t.Errorf("MaxProbes = %d, want 5", sess.MaxProbes)
	}

	other := New(Config{QuestionID: "q42", Intensity: IntensityDeep}, origin)
	if sess.ID == other.ID {
		t.Error("two sessions share an ID")
	}
}

func TestNewSessionEmptyQuestionID(t *testing.T) {
	sess := New(Config{}, time.Now())
	if !strings.HasPrefix(sess.ID, "question-") {
		t.Errorf("ID = %q, want question- prefix", sess.ID)
	}
}

func TestAppendThreadKeepsOrder(t *testing.T) {
	sess := New(Config{}, time.Now())
	sess.AppendThread(RolePrompter, "Q1", time.Now())
	sess.AppendThread(RoleRespondent, "A1", time.Now())
	sess.AppendThread(RolePrompter, "Q2", time.Now())

	if len(sess.Thread) != 3 {
		t.Fatalf("len(Thread) = %d, want 3", len(sess.Thread))
	}
	if sess.Thread[1].Role != RoleRespondent || sess.Thread[1].Content != "A1" {
		t.Errorf("Thread[1] = %+v", sess.Thread[1])
	}
}

func TestGaps(t *testing.T) {
	sess := New(Config{}, time.Now())
	sess.Segments = []Segment{
		{Seq: 1, Start: 0, End: 5 * time.Second},
		{Seq: 2, Start: 8 * time.Second, End: 12 * time.Second},
		{Seq: 3, Start: 13 * time.Second, End: 20 * time.Second},
	}

	gaps := sess.Gaps()
	if len(gaps) != 2 {
		t.Fatalf("len(Gaps()) = %d, want 2", len(gaps))
	}
	if gaps[0].AfterSeq != 1 || gaps[0].Duration() != 3*time.Second {
		t.Errorf("gaps[0] = %+v", gaps[0])
	}
	if gaps[1].AfterSeq != 2 || gaps[1].Duration() != time.Second {
		t.Errorf("gaps[1] = %+v", gaps[1])
	}
}

func TestGapsFewSegments(t *testing.T) {
	sess := New(Config{}, time.Now())
	if got := sess.Gaps(); got != nil {
		t.Errorf("Gaps() = %v, want nil", got)
	}
	sess.Segments = []Segment{{Seq: 1}}
	if got := sess.Gaps(); got != nil {
		t.Errorf("Gaps() = %v, want nil", got)
	}
}

func TestSegmentDuration(t *testing.T) {
	seg := Segment{Start: 2 * time.Second, End: 9 * time.Second}
	if got := seg.Duration(); got != 7*time.Second {
		t.Errorf("Duration() = %v, want 7s", got)
	}
}
