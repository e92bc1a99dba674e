package transcriptions

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var wrapped = regexp.MustCompile(`db error: .*boom`)

var columns = []string{"transcription_id", "file_id", "file_name", "transcripted_text", "created_timestamp", "updated_timestamp", "created_by"}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+transcription\s*\(file_id,\s*transcripted_text,\s*created_by,\s*updated_by\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$3\)\s*RETURNING\s+transcription_id,\s*created_timestamp,\s*updated_timestamp$`
	now := time.Now()

	mock.ExpectQuery(q).
		WithArgs(int64(3), "hello there", "a@b.io").
		WillReturnRows(sqlmock.NewRows([]string{"transcription_id", "created_timestamp", "updated_timestamp"}).AddRow(int64(12), now, now))

	got, err := repo.Create(context.Background(), &models.Transcription{FileID: 3, Text: "hello there", CreatedBy: "a@b.io"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 12 {
		t.Fatalf("unexpected id %d", got.ID)
	}

	mock.ExpectQuery(q).WillReturnError(errors.New("boom"))
	if _, err := repo.Create(context.Background(), &models.Transcription{FileID: 3}); err == nil || !wrapped.MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+t\.transcription_id,.*JOIN\s+audio_file\s+a.*WHERE\s+a\.user_id\s*=\s*\$1\s+AND\s+\(\$2::bigint\s*=\s*0\s+OR\s+t\.file_id\s*=\s*\$2\)`
	now := time.Now()

	mock.ExpectQuery(q).
		WithArgs(int64(7), int64(0)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(2), int64(3), "lesson", "second", now, now, "a@b.io").
			AddRow(int64(1), int64(3), "lesson", "first", now, now, ""))

	got, err := repo.List(context.Background(), 7, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].Text != "second" || got[1].FileName != "lesson" {
		t.Fatalf("unexpected rows: %+v", got)
	}

	mock.ExpectQuery(q).WithArgs(int64(7), int64(3)).WillReturnError(errors.New("boom"))
	if _, err := repo.List(context.Background(), 7, 3); err == nil || !wrapped.MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}

	mock.ExpectQuery(q).WillReturnRows(sqlmock.NewRows([]string{"transcription_id"}).AddRow(int64(1)))
	if _, err := repo.List(context.Background(), 7, 0); err == nil {
		t.Fatal("expected scan error")
	}
}

func TestLatest(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+t\.transcription_id,.*WHERE\s+a\.user_id\s*=\s*\$1\s+AND\s+t\.file_id\s*=\s*\$2\s+ORDER\s+BY.*LIMIT\s+1$`
	now := time.Now()

	mock.ExpectQuery(q).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(2), int64(3), "lesson", "latest text", now, now, "a@b.io"))

	got, err := repo.Latest(context.Background(), 7, 3)
	if err != nil || got.Text != "latest text" {
		t.Fatalf("unexpected result: %+v, %v", got, err)
	}

	mock.ExpectQuery(q).WithArgs(int64(7), int64(4)).WillReturnError(sql.ErrNoRows)
	if _, err := repo.Latest(context.Background(), 7, 4); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}

	mock.ExpectQuery(q).WillReturnError(errors.New("boom"))
	if _, err := repo.Latest(context.Background(), 7, 3); err == nil || !wrapped.MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
