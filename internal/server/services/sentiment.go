package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/dbx"
	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/dmitrijs2005/audioscribe/internal/server/analyzer"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/repomanager"
)

type StartInput struct {
	FileIDs     []int64
	StudentName string
	ParentName  string
	GradeName   string
}

// SentimentResult is the per-file outcome of Start. Exactly one of Analysis
// and Error is set.
type SentimentResult struct {
	FileID   int64
	Analysis *models.SentimentAnalysis
	Error    string
}

type SentimentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	analyzer    analyzer.Analyzer
	logger      logging.Logger
}

func NewSentimentService(db *sql.DB, m repomanager.RepositoryManager, a analyzer.Analyzer, logger logging.Logger) *SentimentService {
	return &SentimentService{
		db:          db,
		repomanager: m,
		analyzer:    a,
		logger:      logger,
	}
}

// Start categorizes the latest transcript of each file. Failures are
// reported per file; the returned error is only for invalid input.
func (s *SentimentService) Start(ctx context.Context, actor Actor, in StartInput) ([]*SentimentResult, error) {
	ctx, span := tracer.Start(ctx, "SentimentService.Start")
	defer span.End()

	if len(in.FileIDs) == 0 {
		return nil, common.NewValidationError("At least one file must be selected")
	}

	results := make([]*SentimentResult, 0, len(in.FileIDs))
	seen := make(map[int64]struct{}, len(in.FileIDs))
	for _, id := range in.FileIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		a, err := s.analyzeOne(ctx, actor, id, in)
		if err != nil {
			s.logger.Warn(ctx, "sentiment analysis failed", "file_id", id, "error", err)
			results = append(results, &SentimentResult{FileID: id, Error: describe(err)})
			continue
		}
		results = append(results, &SentimentResult{FileID: id, Analysis: a})
	}
	return results, nil
}

func (s *SentimentService) analyzeOne(ctx context.Context, actor Actor, fileID int64, in StartInput) (*models.SentimentAnalysis, error) {
	t, err := s.repomanager.Transcriptions(s.db).Latest(ctx, actor.UserID, fileID)
	if err != nil {
		return nil, err
	}

	category, err := s.analyzer.Categorize(ctx, t.Text)
	if err != nil {
		return nil, err
	}

	lookups := s.repomanager.Lookups(s.db)
	categoryID, err := lookups.CategoryID(ctx, category)
	if errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "unknown category, using neutral", "category", category)
		category = common.CategoryNeutral
		categoryID, err = lookups.CategoryID(ctx, category)
	}
	if err != nil {
		return nil, fmt.Errorf("error resolving category: %w", err)
	}

	analysis := &models.SentimentAnalysis{
		FileID:       fileID,
		FileName:     t.FileName,
		StudentName:  strings.TrimSpace(in.StudentName),
		ParentName:   strings.TrimSpace(in.ParentName),
		GradeName:    strings.TrimSpace(in.GradeName),
		CategoryID:   categoryID,
		CategoryName: category,
		CreatedBy:    actor.Email,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Sentiments(tx).Create(ctx, analysis); err != nil {
			return fmt.Errorf("error saving analysis: %w", err)
		}
		statusID, err := s.repomanager.Lookups(tx).StatusID(ctx, common.StatusAnalyzed)
		if err != nil {
			return fmt.Errorf("error resolving status: %w", err)
		}
		return s.repomanager.AudioFiles(tx).UpdateStatus(ctx, fileID, statusID, actor.Email)
	})
	if err != nil {
		return nil, err
	}

	return analysis, nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return "No transcription found for this file"
	case errors.Is(err, common.ErrUpstream):
		return "Sentiment analysis service is unavailable"
	default:
		return "Sentiment analysis failed"
	}
}

func (s *SentimentService) List(ctx context.Context, userID int64) ([]*models.SentimentAnalysis, error) {
	list, err := s.repomanager.Sentiments(s.db).List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing analyses: %w", err)
	}
	return list, nil
}
