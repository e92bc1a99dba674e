package transcriptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/dbx"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transcription) (*models.Transcription, error) {
	query :=
		`INSERT INTO transcription (file_id, transcripted_text, created_by, updated_by)
		 VALUES ($1, $2, $3, $3)
		 RETURNING transcription_id, created_timestamp, updated_timestamp`

	err := r.db.QueryRowContext(ctx, query, t.FileID, t.Text, t.CreatedBy).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID, fileID int64) ([]*models.Transcription, error) {
	query :=
		`SELECT t.transcription_id, t.file_id, a.file_name, t.transcripted_text,
		        t.created_timestamp, t.updated_timestamp, COALESCE(t.created_by, '')
		 FROM transcription t
		 JOIN audio_file a ON a.file_id = t.file_id
		 WHERE a.user_id = $1 AND ($2::bigint = 0 OR t.file_id = $2)
		 ORDER BY t.created_timestamp DESC, t.transcription_id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, fileID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Transcription, 0)
	for rows.Next() {
		t := &models.Transcription{}
		if err := rows.Scan(&t.ID, &t.FileID, &t.FileName, &t.Text, &t.CreatedAt, &t.UpdatedAt, &t.CreatedBy); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Latest(ctx context.Context, userID, fileID int64) (*models.Transcription, error) {
	query :=
		`SELECT t.transcription_id, t.file_id, a.file_name, t.transcripted_text,
		        t.created_timestamp, t.updated_timestamp, COALESCE(t.created_by, '')
		 FROM transcription t
		 JOIN audio_file a ON a.file_id = t.file_id
		 WHERE a.user_id = $1 AND t.file_id = $2
		 ORDER BY t.created_timestamp DESC, t.transcription_id DESC
		 LIMIT 1`

	t := &models.Transcription{}
	err := r.db.QueryRowContext(ctx, query, userID, fileID).
		Scan(&t.ID, &t.FileID, &t.FileName, &t.Text, &t.CreatedAt, &t.UpdatedAt, &t.CreatedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
