package sentiments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/audioscribe/internal/dbx"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.SentimentAnalysis) (*models.SentimentAnalysis, error) {
	query :=
		`INSERT INTO sentiment_analysis (file_id, student_name, parent_name, grade_name, category_id, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING sentiment_analysis_id, created_timestamp`

	err := r.db.QueryRowContext(ctx, query,
		a.FileID, a.StudentName, a.ParentName, a.GradeName, a.CategoryID, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int64) ([]*models.SentimentAnalysis, error) {
	query :=
		`SELECT sa.sentiment_analysis_id, sa.file_id, a.file_name, sa.student_name, sa.parent_name,
		        sa.grade_name, sa.category_id, c.category_name, sa.created_timestamp, COALESCE(sa.created_by, '')
		 FROM sentiment_analysis sa
		 JOIN audio_file a ON a.file_id = sa.file_id
		 JOIN category c ON c.category_id = sa.category_id
		 WHERE a.user_id = $1
		 ORDER BY sa.created_timestamp DESC, sa.sentiment_analysis_id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.SentimentAnalysis, 0)
	for rows.Next() {
		a := &models.SentimentAnalysis{}
		err := rows.Scan(&a.ID, &a.FileID, &a.FileName, &a.StudentName, &a.ParentName,
			&a.GradeName, &a.CategoryID, &a.CategoryName, &a.CreatedAt, &a.CreatedBy)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
