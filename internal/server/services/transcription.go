package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/dbx"
	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/audioscribe/internal/server/transcriber"
)

// TranscriptionResult is what the transcribe endpoints return. Data is the
// upstream JSON document.
type TranscriptionResult struct {
	TranscriptionID int64
	FileID          int64
	Text            string
	Data            json.RawMessage
}

type TranscriptionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	files       *FileService
	transcriber transcriber.Transcriber
	logger      logging.Logger
}

func NewTranscriptionService(db *sql.DB, m repomanager.RepositoryManager, files *FileService, t transcriber.Transcriber, logger logging.Logger) *TranscriptionService {
	return &TranscriptionService{
		db:          db,
		repomanager: m,
		files:       files,
		transcriber: t,
		logger:      logger,
	}
}

// TranscribeUpload forwards an uploaded file to the transcriber. With a nil
// fileID the upload is first stored as a new audio file; otherwise it is
// attached to the caller's existing file.
func (s *TranscriptionService) TranscribeUpload(ctx context.Context, actor Actor, fileID *int64, in UploadInput) (*TranscriptionResult, error) {
	ctx, span := tracer.Start(ctx, "TranscriptionService.TranscribeUpload")
	defer span.End()

	if in.Body == nil {
		return nil, common.NewValidationError("No file uploaded")
	}

	var file *models.AudioFile
	if fileID == nil {
		stored, err := s.files.Upload(ctx, actor, []UploadInput{in})
		if err != nil {
			return nil, err
		}
		file = stored[0]
		if _, err := in.Body.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("error rewinding upload: %w", err)
		}
	} else {
		f, err := s.files.Get(ctx, actor.UserID, *fileID)
		if err != nil {
			return nil, err
		}
		file = f
	}

	res, err := s.transcribe(ctx, actor, file, in.Filename, in.ContentType, in.Body)
	return res, recordError(span, err)
}

// TranscribeStored sends a previously uploaded file to the transcriber.
func (s *TranscriptionService) TranscribeStored(ctx context.Context, actor Actor, fileID int64) (*TranscriptionResult, error) {
	ctx, span := tracer.Start(ctx, "TranscriptionService.TranscribeStored")
	defer span.End()

	file, body, err := s.files.Open(ctx, actor.UserID, fileID)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	res, err := s.transcribe(ctx, actor, file, audioFilename(file), audioExtensions["."+strings.ToLower(file.FileType)], body)
	return res, recordError(span, err)
}

func (s *TranscriptionService) transcribe(ctx context.Context, actor Actor, file *models.AudioFile, filename, contentType string, body io.Reader) (*TranscriptionResult, error) {
	if err := s.files.SetStatus(ctx, actor, file.ID, common.StatusTranscribing); err != nil {
		return nil, err
	}

	res, err := s.transcriber.Transcribe(ctx, filename, contentType, body)
	if err != nil {
		s.logger.Warn(ctx, "transcription failed", "file_id", file.ID, "error", err)
		s.markFailed(ctx, actor, file.ID)
		return nil, err
	}

	var t *models.Transcription
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		t, err = s.repomanager.Transcriptions(tx).Create(ctx, &models.Transcription{
			FileID:    file.ID,
			Text:      res.Text,
			CreatedBy: actor.Email,
		})
		if err != nil {
			return fmt.Errorf("error saving transcription: %w", err)
		}

		statusID, err := s.repomanager.Lookups(tx).StatusID(ctx, common.StatusTranscribed)
		if err != nil {
			return fmt.Errorf("error resolving status: %w", err)
		}
		return s.repomanager.AudioFiles(tx).UpdateStatus(ctx, file.ID, statusID, actor.Email)
	})
	if err != nil {
		s.logger.Error(ctx, "error saving transcription", "file_id", file.ID, "error", err)
		s.markFailed(ctx, actor, file.ID)
		return nil, err
	}

	s.logger.Info(ctx, "file transcribed", "file_id", file.ID, "transcription_id", t.ID, "chars", len(res.Text))
	return &TranscriptionResult{
		TranscriptionID: t.ID,
		FileID:          file.ID,
		Text:            res.Text,
		Data:            res.Raw,
	}, nil
}

// markFailed moves a file out of Transcribing. It runs even when ctx is
// already cancelled.
func (s *TranscriptionService) markFailed(ctx context.Context, actor Actor, fileID int64) {
	if err := s.files.SetStatus(context.WithoutCancel(ctx), actor, fileID, common.StatusFailed); err != nil {
		s.logger.Error(ctx, "error marking file failed", "file_id", fileID, "error", err)
	}
}

// ListTranscriptions returns the user's transcripts, optionally for a
// single file (fileID 0 means all).
func (s *TranscriptionService) ListTranscriptions(ctx context.Context, userID, fileID int64) ([]*models.Transcription, error) {
	list, err := s.repomanager.Transcriptions(s.db).List(ctx, userID, fileID)
	if err != nil {
		return nil, fmt.Errorf("error listing transcriptions: %w", err)
	}
	return list, nil
}
