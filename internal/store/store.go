// Package store persists completed interview records to SQLite via GORM.
package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqliteDriver "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/probewise/interview/internal/errors"
	"github.com/probewise/interview/internal/session"
)

// Store writes completed sessions. It implements orchestrator.RecordSink.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at dsn and migrates the
// schema.
func Open(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "interview.db"
	}
	if err := ensureDirectory(dsn); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqliteDriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeStoreFailed, "open store %s", dsn)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(&interviewRow{}, &segmentRow{}, &threadRow{}); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStoreFailed, "migrate store schema")
	}
	return nil
}

// SaveCompleted writes the session and its segments and thread in one
// transaction. Saving the same session twice replaces the earlier record.
func (s *Store) SaveCompleted(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return apperrors.New(apperrors.CodeStoreFailed, "nil session")
	}

	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := interviewRow{
			ID:                  sess.ID,
			QuestionID:          sess.Config.QuestionID,
			QuestionText:        sess.Config.QuestionText,
			ProbingIntensity:    string(sess.Config.Intensity),
			ProbeCount:          sess.ProbeCount,
			MaxProbes:           sess.MaxProbes,
			CompletionReason:    string(sess.CompletionReason),
			FullTranscript:      sess.FullTranscript,
			ArtifactLocation:    sess.ArtifactLocation,
			ProbingInstructions: sess.Config.ProbingInstructions,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := tx.Save(&row).Error; err != nil {
			return err
		}

		if err := tx.Where("interview_id = ?", sess.ID).Delete(&segmentRow{}).Error; err != nil {
			return err
		}
		for _, seg := range sess.Segments {
			segRow := segmentRow{
				InterviewID: sess.ID,
				Seq:         seg.Seq,
				Question:    seg.Question,
				Transcript:  seg.Transcript,
				StartMillis: seg.Start.Milliseconds(),
				EndMillis:   seg.End.Milliseconds(),
				Kind:        seg.Kind,
				CreatedAt:   now,
			}
			if err := tx.Create(&segRow).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("interview_id = ?", sess.ID).Delete(&threadRow{}).Error; err != nil {
			return err
		}
		for i, entry := range sess.Thread {
			tRow := threadRow{
				InterviewID: sess.ID,
				Position:    i,
				Role:        string(entry.Role),
				Content:     entry.Content,
				At:          entry.At,
			}
			if err := tx.Create(&tRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeStoreFailed, "save interview %s", sess.ID)
	}
	return nil
}

// LoadRecord reads back one persisted interview with its segments.
func (s *Store) LoadRecord(ctx context.Context, id string) (*session.Session, error) {
	var row interviewRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeStoreFailed, "load interview %s", id)
	}

	var segRows []segmentRow
	if err := s.db.WithContext(ctx).
		Where("interview_id = ?", id).
		Order("seq ASC").
		Find(&segRows).Error; err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeStoreFailed, "load segments %s", id)
	}

	var tRows []threadRow
	if err := s.db.WithContext(ctx).
		Where("interview_id = ?", id).
		Order("position ASC").
		Find(&tRows).Error; err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeStoreFailed, "load thread %s", id)
	}

	sess := &session.Session{
		ID: row.ID,
		Config: session.Config{
			QuestionID:          row.QuestionID,
			QuestionText:        row.QuestionText,
			ProbingInstructions: row.ProbingInstructions,
			Intensity:           session.ProbingIntensity(row.ProbingIntensity),
		},
		FullTranscript:   row.FullTranscript,
		ProbeCount:       row.ProbeCount,
		MaxProbes:        row.MaxProbes,
		CompletionReason: session.CompletionReason(row.CompletionReason),
		ArtifactLocation: row.ArtifactLocation,
	}
	for _, sr := range segRows {
		sess.Segments = append(sess.Segments, session.Segment{
			Seq:        sr.Seq,
			Question:   sr.Question,
			Transcript: sr.Transcript,
			Start:      time.Duration(sr.StartMillis) * time.Millisecond,
			End:        time.Duration(sr.EndMillis) * time.Millisecond,
			Kind:       sr.Kind,
		})
	}
	for _, tr := range tRows {
		sess.Thread = append(sess.Thread, session.ThreadEntry{
			Role:    session.Role(tr.Role),
			Content: tr.Content,
			At:      tr.At,
		})
	}
	return sess, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureDirectory(dsn string) error {
	if strings.EqualFold(dsn, ":memory:") || strings.HasPrefix(strings.ToLower(dsn), "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStoreFailed, "create store directory")
	}
	return nil
}
