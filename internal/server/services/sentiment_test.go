package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentimentFixture struct {
	svc  *SentimentService
	rm   *fakeRepoManager
	an   *fakeAnalyzer
	mock sqlmock.Sqlmock
}

func newSentimentFixture(t *testing.T) *sentimentFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	rm := newFakeRepoManager()
	an := &fakeAnalyzer{byText: map[string]string{
		"thank you": common.CategoryPositive,
		"upset":     common.CategoryNegative,
		"weird":     "Mixed",
	}}
	return &sentimentFixture{
		svc:  NewSentimentService(db, rm, an, logging.Nop()),
		rm:   rm,
		an:   an,
		mock: mock,
	}
}

func (f *sentimentFixture) transcribed(userID int64, text string) int64 {
	file := f.rm.audio.add(&models.AudioFile{UserID: userID, FileName: "call", StatusID: statusTranscribedID})
	f.rm.transcriptions.rows = append(f.rm.transcriptions.rows, &models.Transcription{
		ID: int64(len(f.rm.transcriptions.rows) + 1), FileID: file.ID, FileName: "call", Text: text,
	})
	return file.ID
}

func TestSentimentStart(t *testing.T) {
	f := newSentimentFixture(t)
	pos := f.transcribed(ada.UserID, "thank you so much")
	neg := f.transcribed(ada.UserID, "the parent was upset")
	odd := f.transcribed(ada.UserID, "weird call")
	untranscribed := f.rm.audio.add(&models.AudioFile{UserID: ada.UserID}).ID

	for range 3 {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
	}

	res, err := f.svc.Start(context.Background(), ada, StartInput{
		FileIDs:     []int64{pos, neg, pos, odd, untranscribed},
		StudentName: " Sam ",
		ParentName:  "Pat",
		GradeName:   "5",
	})
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())
	require.Len(t, res, 4)

	assert.Equal(t, common.CategoryPositive, res[0].Analysis.CategoryName)
	assert.Equal(t, 1, res[0].Analysis.CategoryID)
	assert.Equal(t, "Sam", res[0].Analysis.StudentName)
	assert.Equal(t, "ada@example.com", res[0].Analysis.CreatedBy)

	assert.Equal(t, common.CategoryNegative, res[1].Analysis.CategoryName)
	assert.Equal(t, common.CategoryNeutral, res[2].Analysis.CategoryName)

	assert.Nil(t, res[3].Analysis)
	assert.Equal(t, untranscribed, res[3].FileID)
	assert.Equal(t, "No transcription found for this file", res[3].Error)

	assert.Len(t, f.rm.sentiments.rows, 3)
	assert.Equal(t, statusAnalyzedID, f.rm.audio.files[pos].StatusID)
	assert.Equal(t, 0, f.rm.audio.files[untranscribed].StatusID)
}

func TestSentimentStart_OtherUsersFile(t *testing.T) {
	f := newSentimentFixture(t)
	id := f.transcribed(99, "thank you")

	res, err := f.svc.Start(context.Background(), ada, StartInput{FileIDs: []int64{id}})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "No transcription found for this file", res[0].Error)
	assert.Empty(t, f.rm.sentiments.rows)
}

func TestSentimentStart_AnalyzerErrors(t *testing.T) {
	f := newSentimentFixture(t)
	id := f.transcribed(ada.UserID, "thank you")

	f.an.err = common.ErrUpstream
	res, err := f.svc.Start(context.Background(), ada, StartInput{FileIDs: []int64{id}})
	require.NoError(t, err)
	assert.Equal(t, "Sentiment analysis service is unavailable", res[0].Error)

	f.an.err = errBoom{}
	res, err = f.svc.Start(context.Background(), ada, StartInput{FileIDs: []int64{id}})
	require.NoError(t, err)
	assert.Equal(t, "Sentiment analysis failed", res[0].Error)
}

func TestSentimentStart_SaveFailureRollsBack(t *testing.T) {
	f := newSentimentFixture(t)
	id := f.transcribed(ada.UserID, "thank you")
	f.rm.sentiments.createErr = errBoom{}

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	res, err := f.svc.Start(context.Background(), ada, StartInput{FileIDs: []int64{id}})
	require.NoError(t, err)
	assert.Equal(t, "Sentiment analysis failed", res[0].Error)
	assert.Equal(t, statusTranscribedID, f.rm.audio.files[id].StatusID)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSentimentStart_NoFiles(t *testing.T) {
	f := newSentimentFixture(t)

	_, err := f.svc.Start(context.Background(), ada, StartInput{})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, "At least one file must be selected", err.Error())
}

func TestSentimentList(t *testing.T) {
	f := newSentimentFixture(t)
	f.rm.sentiments.rows = []*models.SentimentAnalysis{{ID: 1, CategoryName: common.CategoryNeutral}}

	list, err := f.svc.List(context.Background(), ada.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	f.rm.sentiments.listErr = errBoom{}
	_, err = f.svc.List(context.Background(), ada.UserID)
	assert.ErrorIs(t, err, errBoom{})
}
