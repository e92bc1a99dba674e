// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/audioscribe/internal/dbx"
	"github.com/dmitrijs2005/audioscribe/internal/server/migrations"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/audiofiles"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/lookups"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/otps"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/sentiments"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/transcriptions"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) OTPs(db dbx.DBTX) otps.Repository {
	return otps.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) AudioFiles(db dbx.DBTX) audiofiles.Repository {
	return audiofiles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Transcriptions(db dbx.DBTX) transcriptions.Repository {
	return transcriptions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Sentiments(db dbx.DBTX) sentiments.Repository {
	return sentiments.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Lookups(db dbx.DBTX) lookups.Repository {
	return lookups.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded server migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
