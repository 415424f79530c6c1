package store

import "time"

// interviewRow is the persisted form of a completed conversation.
type interviewRow struct {
	ID                  string `gorm:"primaryKey"`
	QuestionID          string `gorm:"index"`
	QuestionText        string
	ProbingIntensity    string
	ProbeCount          int
	MaxProbes           int
	CompletionReason    string
	FullTranscript      string
	ArtifactLocation    string
	ProbingInstructions string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (interviewRow) TableName() string { return "interviews" }

// segmentRow is one respondent turn inside an interview, addressed by
// (interview, sequence).
type segmentRow struct {
	InterviewID string `gorm:"primaryKey"`
	Seq         int    `gorm:"primaryKey;autoIncrement:false"`
	Question    string
	Transcript  string
	StartMillis int64
	EndMillis   int64
	Kind        string
	CreatedAt   time.Time
}

func (segmentRow) TableName() string { return "interview_segments" }

// threadRow is one entry of the prompter/respondent exchange, kept in
// insertion order for later review.
type threadRow struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	InterviewID string `gorm:"index"`
	Position    int
	Role        string
	Content     string
	At          time.Time
}

func (threadRow) TableName() string { return "interview_thread" }
