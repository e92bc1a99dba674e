package httpapi

import (
	"context"
	"io"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
	"github.com/dmitrijs2005/audioscribe/internal/server/services"
)

type fakeUsers struct {
	registered []services.RegisterInput
	err        error
	user       *models.User
}

func (f *fakeUsers) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	f.registered = append(f.registered, in)
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: 42, Email: in.Email}, nil
}

func (f *fakeUsers) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, common.ErrorNotFound
	}
	return f.user, nil
}

type fakeLogin struct {
	sessions   map[string]*services.SessionInfo
	sendRes    *services.SendOTPResult
	sendErr    error
	session    *services.Session
	verifyErr  error
	refreshErr error
	signedOut  []string
	gotRefresh string
}

func (f *fakeLogin) CheckSession(token string) (*services.SessionInfo, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	if token == "expired" {
		return nil, common.ErrTokenExpired
	}
	if info, ok := f.sessions[token]; ok {
		return info, nil
	}
	return nil, common.ErrInvalidToken
}

func (f *fakeLogin) SendOTP(ctx context.Context, email string) (*services.SendOTPResult, error) {
	return f.sendRes, f.sendErr
}

func (f *fakeLogin) VerifyOTP(ctx context.Context, email, code string) (*services.Session, error) {
	return f.session, f.verifyErr
}

func (f *fakeLogin) Refresh(ctx context.Context, refreshToken string) (*services.Session, error) {
	f.gotRefresh = refreshToken
	if refreshToken == "" {
		return nil, common.ErrorUnauthorized
	}
	return f.session, f.refreshErr
}

func (f *fakeLogin) SignOut(ctx context.Context, refreshToken string) error {
	f.signedOut = append(f.signedOut, refreshToken)
	return nil
}

type uploaded struct {
	actor services.Actor
	name  string
	ctype string
	dur   string
	body  string
}

type fakeFiles struct {
	uploads   []uploaded
	uploadErr error
	files     []*models.AudioFile
	gotQuery  models.FileQuery
	deleted   []int64
}

func (f *fakeFiles) Upload(ctx context.Context, actor services.Actor, inputs []services.UploadInput) ([]*models.AudioFile, error) {
	out := make([]*models.AudioFile, 0, len(inputs))
	for i, in := range inputs {
		b, _ := io.ReadAll(in.Body)
		f.uploads = append(f.uploads, uploaded{actor, in.Filename, in.ContentType, in.Duration, string(b)})
		out = append(out, &models.AudioFile{ID: int64(i + 1), FileName: in.Filename})
	}
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return out, nil
}

func (f *fakeFiles) List(ctx context.Context, userID int64, q models.FileQuery) ([]*models.AudioFile, error) {
	f.gotQuery = q
	return f.files, nil
}

func (f *fakeFiles) Get(ctx context.Context, userID, fileID int64) (*models.AudioFile, error) {
	for _, file := range f.files {
		if file.ID == fileID && file.UserID == userID {
			return file, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeFiles) Delete(ctx context.Context, userID, fileID int64) error {
	if _, err := f.Get(ctx, userID, fileID); err != nil {
		return err
	}
	f.deleted = append(f.deleted, fileID)
	return nil
}

func (f *fakeFiles) DownloadURL(ctx context.Context, userID, fileID int64) (string, error) {
	if _, err := f.Get(ctx, userID, fileID); err != nil {
		return "", err
	}
	return "http://minio/audio/key?sig", nil
}

func (f *fakeFiles) ListStatuses(ctx context.Context) ([]*models.Status, error) {
	return []*models.Status{{ID: 1, Name: common.StatusUploaded}}, nil
}

func (f *fakeFiles) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return []*models.Category{{ID: 1, Name: common.CategoryPositive}}, nil
}

type fakeTranscriptions struct {
	gotFileID *int64
	gotBody   string
	res       *services.TranscriptionResult
	err       error
	list      []*models.Transcription
	listFile  int64
}

func (f *fakeTranscriptions) TranscribeUpload(ctx context.Context, actor services.Actor, fileID *int64, in services.UploadInput) (*services.TranscriptionResult, error) {
	f.gotFileID = fileID
	b, _ := io.ReadAll(in.Body)
	f.gotBody = string(b)
	return f.res, f.err
}

func (f *fakeTranscriptions) TranscribeStored(ctx context.Context, actor services.Actor, fileID int64) (*services.TranscriptionResult, error) {
	return f.res, f.err
}

func (f *fakeTranscriptions) ListTranscriptions(ctx context.Context, userID, fileID int64) ([]*models.Transcription, error) {
	f.listFile = fileID
	return f.list, nil
}

type fakeSentiments struct {
	got     services.StartInput
	results []*services.SentimentResult
	err     error
}

func (f *fakeSentiments) Start(ctx context.Context, actor services.Actor, in services.StartInput) ([]*services.SentimentResult, error) {
	f.got = in
	return f.results, f.err
}

func (f *fakeSentiments) List(ctx context.Context, userID int64) ([]*models.SentimentAnalysis, error) {
	return []*models.SentimentAnalysis{}, nil
}
