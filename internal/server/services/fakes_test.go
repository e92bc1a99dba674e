package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/dbx"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/audiofiles"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/lookups"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/otps"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/sentiments"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/transcriptions"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/users"
	"github.com/dmitrijs2005/audioscribe/internal/server/transcriber"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// --- users ---

type fakeUsers struct {
	byID      map[int64]*models.User
	nextID    int64
	createErr error
	getErr    error
}

func (f *fakeUsers) add(u *models.User) *models.User {
	f.nextID++
	u.ID = f.nextID
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	return f.add(u), nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

// --- otps ---

type fakeOTPs struct {
	rows       []*models.OTP
	createErr  error
	consumeErr error
	deleteErr  error
	cutoff     time.Time
}

func (f *fakeOTPs) Create(ctx context.Context, userID int64, codeHash string) (*models.OTP, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	o := &models.OTP{ID: int64(len(f.rows) + 1), UserID: userID, CodeHash: codeHash, CreatedAt: time.Now()}
	f.rows = append(f.rows, o)
	return o, nil
}

func (f *fakeOTPs) Consume(ctx context.Context, userID int64, codeHash string, notBefore time.Time) (*models.OTP, error) {
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	for i, o := range f.rows {
		if o.UserID == userID && o.CodeHash == codeHash && !o.CreatedAt.Before(notBefore) {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return o, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeOTPs) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	kept := f.rows[:0]
	var n int64
	for _, o := range f.rows {
		if o.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, o)
	}
	f.rows = kept
	return n, nil
}

// --- refresh tokens ---

type fakeRefresh struct {
	tokens     map[string]*models.RefreshToken
	createErr  error
	consumeErr error
	delErr     error
	expiredErr error
}

func (f *fakeRefresh) Create(ctx context.Context, userID int64, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefresh) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	if rt, ok := f.tokens[token]; ok {
		delete(f.tokens, token)
		return rt, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRefresh) Delete(ctx context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefresh) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if f.expiredErr != nil {
		return 0, f.expiredErr
	}
	var n int64
	for k, rt := range f.tokens {
		if rt.Expires.Before(now) {
			delete(f.tokens, k)
			n++
		}
	}
	return n, nil
}

// --- audio files ---

type fakeAudio struct {
	files     map[int64]*models.AudioFile
	nextID    int64
	history   []int
	createErr error
	listErr   error
	updateErr error
	deleteErr error
}

func (f *fakeAudio) add(file *models.AudioFile) *models.AudioFile {
	f.nextID++
	file.ID = f.nextID
	f.files[file.ID] = file
	return file
}

func (f *fakeAudio) Create(ctx context.Context, file *models.AudioFile) (*models.AudioFile, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.add(file), nil
}

func (f *fakeAudio) Get(ctx context.Context, userID, fileID int64) (*models.AudioFile, error) {
	if file, ok := f.files[fileID]; ok && file.UserID == userID {
		return file, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAudio) List(ctx context.Context, userID int64, q models.FileQuery) ([]*models.AudioFile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.AudioFile, 0)
	for _, file := range f.files {
		if file.UserID == userID && (q.StatusID == 0 || file.StatusID == q.StatusID) {
			out = append(out, file)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeAudio) UpdateStatus(ctx context.Context, fileID int64, statusID int, updatedBy string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	file, ok := f.files[fileID]
	if !ok {
		return common.ErrorNotFound
	}
	file.StatusID = statusID
	file.UpdatedBy = updatedBy
	f.history = append(f.history, statusID)
	return nil
}

func (f *fakeAudio) Delete(ctx context.Context, userID, fileID int64) (string, error) {
	if f.deleteErr != nil {
		return "", f.deleteErr
	}
	file, ok := f.files[fileID]
	if !ok || file.UserID != userID {
		return "", common.ErrorNotFound
	}
	delete(f.files, fileID)
	return file.StorageKey, nil
}

// --- transcriptions ---

type fakeTranscriptions struct {
	audio     *fakeAudio
	rows      []*models.Transcription
	createErr error
	listErr   error
}

func (f *fakeTranscriptions) Create(ctx context.Context, t *models.Transcription) (*models.Transcription, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	t.ID = int64(len(f.rows) + 1)
	t.CreatedAt = time.Now()
	f.rows = append(f.rows, t)
	return t, nil
}

func (f *fakeTranscriptions) owned(userID int64, t *models.Transcription) bool {
	file, ok := f.audio.files[t.FileID]
	return ok && file.UserID == userID
}

func (f *fakeTranscriptions) List(ctx context.Context, userID, fileID int64) ([]*models.Transcription, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Transcription, 0)
	for i := len(f.rows) - 1; i >= 0; i-- {
		t := f.rows[i]
		if f.owned(userID, t) && (fileID == 0 || t.FileID == fileID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTranscriptions) Latest(ctx context.Context, userID, fileID int64) (*models.Transcription, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		t := f.rows[i]
		if t.FileID == fileID && f.owned(userID, t) {
			return t, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- sentiments ---

type fakeSentiments struct {
	rows      []*models.SentimentAnalysis
	createErr error
	listErr   error
}

func (f *fakeSentiments) Create(ctx context.Context, a *models.SentimentAnalysis) (*models.SentimentAnalysis, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	a.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, a)
	return a, nil
}

func (f *fakeSentiments) List(ctx context.Context, userID int64) ([]*models.SentimentAnalysis, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rows, nil
}

// --- lookups ---

const (
	statusUploadedID     = 1
	statusTranscribingID = 2
	statusTranscribedID  = 3
	statusFailedID       = 4
	statusAnalyzedID     = 5
)

type fakeLookups struct {
	err error
}

var (
	seededStatuses = []string{common.StatusUploaded, common.StatusTranscribing, common.StatusTranscribed, common.StatusFailed, common.StatusAnalyzed}
	seededCategory = []string{common.CategoryPositive, common.CategoryNeutral, common.CategoryNegative}
)

func (f *fakeLookups) Statuses(ctx context.Context) ([]*models.Status, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Status, 0, len(seededStatuses))
	for i, n := range seededStatuses {
		out = append(out, &models.Status{ID: i + 1, Name: n})
	}
	return out, nil
}

func (f *fakeLookups) Categories(ctx context.Context) ([]*models.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Category, 0, len(seededCategory))
	for i, n := range seededCategory {
		out = append(out, &models.Category{ID: i + 1, Name: n})
	}
	return out, nil
}

func (f *fakeLookups) StatusID(ctx context.Context, name string) (int, error) {
	return indexOf(f.err, seededStatuses, name)
}

func (f *fakeLookups) CategoryID(ctx context.Context, name string) (int, error) {
	return indexOf(f.err, seededCategory, name)
}

func indexOf(err error, names []string, name string) (int, error) {
	if err != nil {
		return 0, err
	}
	for i, n := range names {
		if n == name {
			return i + 1, nil
		}
	}
	return 0, common.ErrorNotFound
}

// --- manager ---

type fakeRepoManager struct {
	users          *fakeUsers
	otps           *fakeOTPs
	refresh        *fakeRefresh
	audio          *fakeAudio
	transcriptions *fakeTranscriptions
	sentiments     *fakeSentiments
	lookups        *fakeLookups
}

func newFakeRepoManager() *fakeRepoManager {
	audio := &fakeAudio{files: map[int64]*models.AudioFile{}}
	return &fakeRepoManager{
		users:          &fakeUsers{byID: map[int64]*models.User{}},
		otps:           &fakeOTPs{},
		refresh:        &fakeRefresh{tokens: map[string]*models.RefreshToken{}},
		audio:          audio,
		transcriptions: &fakeTranscriptions{audio: audio},
		sentiments:     &fakeSentiments{},
		lookups:        &fakeLookups{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error      { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                   { return m.users }
func (m *fakeRepoManager) OTPs(dbx.DBTX) otps.Repository                     { return m.otps }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository   { return m.refresh }
func (m *fakeRepoManager) AudioFiles(dbx.DBTX) audiofiles.Repository         { return m.audio }
func (m *fakeRepoManager) Transcriptions(dbx.DBTX) transcriptions.Repository { return m.transcriptions }
func (m *fakeRepoManager) Sentiments(dbx.DBTX) sentiments.Repository         { return m.sentiments }
func (m *fakeRepoManager) Lookups(dbx.DBTX) lookups.Repository               { return m.lookups }

// --- collaborators ---

type fakeStore struct {
	objects    map[string][]byte
	types      map[string]string
	putErr     error
	getErr     error
	delErr     error
	presignErr error
	deleted    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if s.putErr != nil {
		return s.putErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = b
	s.types[key] = contentType
	return nil
}

func (s *fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	b, ok := s.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) PresignGet(ctx context.Context, key string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "http://minio/audio/" + key + "?X-Amz-Signature=x", nil
}

type fakeTranscriber struct {
	text    string
	err     error
	gotName string
	gotType string
	gotBody string
	calls   int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, filename, contentType string, audio io.Reader) (*transcriber.Result, error) {
	f.calls++
	f.gotName, f.gotType = filename, contentType
	b, _ := io.ReadAll(audio)
	f.gotBody = string(b)
	if f.err != nil {
		return nil, f.err
	}
	return &transcriber.Result{Text: f.text, Raw: []byte(`{"clean_transcript":"` + f.text + `"}`)}, nil
}

type fakeAnalyzer struct {
	byText map[string]string
	err    error
}

func (f *fakeAnalyzer) Categorize(ctx context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for k, v := range f.byText {
		if strings.Contains(text, k) {
			return v, nil
		}
	}
	return common.CategoryNeutral, nil
}
