package otps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *PostgresRepository) Create(ctx context.Context, userID int64, codeHash string) (*models.OTP, error) {
	query :=
		`INSERT INTO otp (user_id, code_hash)
		 VALUES ($1, $2)
		 RETURNING otp_id, created_timestamp`

	otp := &models.OTP{UserID: userID, CodeHash: codeHash}
	err := r.db.QueryRowContext(ctx, query, userID, codeHash).Scan(&otp.ID, &otp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return otp, nil
}

func (r *PostgresRepository) Consume(ctx context.Context, userID int64, codeHash string, notBefore time.Time) (*models.OTP, error) {
	query :=
		`DELETE FROM otp
		 WHERE otp_id = (
		     SELECT otp_id FROM otp
		     WHERE user_id = $1 AND code_hash = $2 AND created_timestamp >= $3
		     ORDER BY created_timestamp DESC
		     LIMIT 1
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING otp_id, user_id, code_hash, created_timestamp`

	otp := &models.OTP{}
	err := r.db.QueryRowContext(ctx, query, userID, codeHash, notBefore).
		Scan(&otp.ID, &otp.UserID, &otp.CodeHash, &otp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return otp, nil
}

func (r *PostgresRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM otp WHERE created_timestamp < $1`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
