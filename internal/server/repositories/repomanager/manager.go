package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/audioscribe/internal/dbx"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/audiofiles"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/lookups"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/otps"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/sentiments"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/transcriptions"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so the same code runs
// against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	OTPs(db dbx.DBTX) otps.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	AudioFiles(db dbx.DBTX) audiofiles.Repository
	Transcriptions(db dbx.DBTX) transcriptions.Repository
	Sentiments(db dbx.DBTX) sentiments.Repository
	Lookups(db dbx.DBTX) lookups.Repository
}
