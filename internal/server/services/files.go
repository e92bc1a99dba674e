package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/dmitrijs2005/audioscribe/internal/server/blobstore"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/repomanager"
	"github.com/dustin/go-humanize"
)

var audioExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
}

var durationPattern = regexp.MustCompile(`^\d+:[0-5]\d$`)

// UploadInput is one audio file from a multipart upload. Body must be
// seekable so a freshly stored file can be re-read for transcription.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Duration    string
	Body        io.ReadSeeker
}

type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blobstore.Store
	logger      logging.Logger
	now         func() time.Time
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store blobstore.Store, logger logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger,
		now:         time.Now,
	}
}

// Upload stores each file in object storage and records it with status
// Uploaded. Processing stops at the first failing file; files stored before
// it are kept.
func (s *FileService) Upload(ctx context.Context, actor Actor, inputs []UploadInput) ([]*models.AudioFile, error) {
	ctx, span := tracer.Start(ctx, "FileService.Upload")
	defer span.End()

	if len(inputs) == 0 {
		return nil, common.NewValidationError("No file uploaded")
	}

	for _, in := range inputs {
		if err := validateUpload(in); err != nil {
			return nil, err
		}
	}

	statusID, err := s.repomanager.Lookups(s.db).StatusID(ctx, common.StatusUploaded)
	if err != nil {
		return nil, fmt.Errorf("error resolving status: %w", err)
	}

	result := make([]*models.AudioFile, 0, len(inputs))
	for _, in := range inputs {
		f, err := s.uploadOne(ctx, actor, in, statusID)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, nil
}

func (s *FileService) uploadOne(ctx context.Context, actor Actor, in UploadInput, statusID int) (*models.AudioFile, error) {
	ext := strings.ToLower(filepath.Ext(in.Filename))
	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = audioExtensions[ext]
	}

	key := blobstore.NewStorageKey(actor.UserID, ext, s.now())
	if err := s.store.Put(ctx, key, contentType, in.Body, in.Size); err != nil {
		return nil, fmt.Errorf("error storing file: %w", err)
	}

	f := &models.AudioFile{
		UserID:     actor.UserID,
		FileName:   strings.TrimSuffix(filepath.Base(in.Filename), filepath.Ext(in.Filename)),
		FileType:   strings.ToUpper(strings.TrimPrefix(ext, ".")),
		FileSize:   humanize.Bytes(uint64(max(in.Size, 0))),
		SizeBytes:  in.Size,
		Duration:   in.Duration,
		StorageKey: key,
		StatusID:   statusID,
		CreatedBy:  actor.Email,
	}

	f, err := s.repomanager.AudioFiles(s.db).Create(ctx, f)
	if err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.logger.Warn(ctx, "orphaned object", "key", key, "error", derr)
		}
		return nil, fmt.Errorf("error saving file: %w", err)
	}
	f.StatusName = common.StatusUploaded

	s.logger.Info(ctx, "file uploaded", "user_id", actor.UserID, "file_id", f.ID, "size", in.Size)
	return f, nil
}

func validateUpload(in UploadInput) error {
	if in.Body == nil || in.Filename == "" {
		return common.NewValidationError("No file uploaded")
	}
	ext := strings.ToLower(filepath.Ext(in.Filename))
	if _, ok := audioExtensions[ext]; !ok {
		return common.NewValidationError(fmt.Sprintf("Unsupported file type %q. Please upload an audio file.", ext))
	}
	ct := strings.ToLower(in.ContentType)
	if ct != "" && ct != "application/octet-stream" &&
		!strings.HasPrefix(ct, "audio/") && !strings.HasPrefix(ct, "video/") {
		return common.NewValidationError(fmt.Sprintf("Unsupported content type %q. Please upload an audio file.", in.ContentType))
	}
	if in.Duration != "" && !durationPattern.MatchString(in.Duration) {
		return common.NewValidationError("Duration must look like m:ss")
	}
	return nil
}

func (s *FileService) List(ctx context.Context, userID int64, q models.FileQuery) ([]*models.AudioFile, error) {
	files, err := s.repomanager.AudioFiles(s.db).List(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	return files, nil
}

// Get returns common.ErrorNotFound for files of other users.
func (s *FileService) Get(ctx context.Context, userID, fileID int64) (*models.AudioFile, error) {
	f, err := s.repomanager.AudioFiles(s.db).Get(ctx, userID, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error loading file: %w", err)
	}
	return f, nil
}

// Delete removes the row, which cascades to transcripts and analyses, then
// the stored object. A failed object delete is logged only.
func (s *FileService) Delete(ctx context.Context, userID, fileID int64) error {
	key, err := s.repomanager.AudioFiles(s.db).Delete(ctx, userID, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error deleting file: %w", err)
	}

	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn(ctx, "orphaned object", "key", key, "error", err)
	}

	s.logger.Info(ctx, "file deleted", "user_id", userID, "file_id", fileID)
	return nil
}

// DownloadURL returns a presigned GET URL for a user's file.
func (s *FileService) DownloadURL(ctx context.Context, userID, fileID int64) (string, error) {
	f, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, f.StorageKey)
	if err != nil {
		return "", fmt.Errorf("error presigning download: %w", err)
	}
	return url, nil
}

// Open streams a user's stored audio. The caller closes the reader.
func (s *FileService) Open(ctx context.Context, userID, fileID int64) (*models.AudioFile, io.ReadCloser, error) {
	f, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Get(ctx, f.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading file: %w", err)
	}
	return f, rc, nil
}

func (s *FileService) SetStatus(ctx context.Context, actor Actor, fileID int64, status string) error {
	id, err := s.repomanager.Lookups(s.db).StatusID(ctx, status)
	if err != nil {
		return fmt.Errorf("error resolving status %s: %w", status, err)
	}
	if err := s.repomanager.AudioFiles(s.db).UpdateStatus(ctx, fileID, id, actor.Email); err != nil {
		return fmt.Errorf("error updating status: %w", err)
	}
	return nil
}

func (s *FileService) ListStatuses(ctx context.Context) ([]*models.Status, error) {
	statuses, err := s.repomanager.Lookups(s.db).Statuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing statuses: %w", err)
	}
	return statuses, nil
}

func (s *FileService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.repomanager.Lookups(s.db).Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	return categories, nil
}

// audioFilename rebuilds a file name with extension for the transcriber.
func audioFilename(f *models.AudioFile) string {
	return f.FileName + "." + strings.ToLower(f.FileType)
}
