package apiclient

import (
	"encoding/json"
	"io"
	"time"
)

// RegisterRequest is the body of /register/createUser.
type RegisterRequest struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email_id"`
	Password  string `json:"password,omitempty"`
	ContactNo string `json:"contact_no,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ContactNo string `json:"contact_no"`
}

// OTPChallenge is returned by SendOTP. DevOTP is only filled by servers
// running in development mode.
type OTPChallenge struct {
	Message   string `json:"message"`
	Email     string `json:"email"`
	TempToken string `json:"temp_token"`
	DevOTP    string `json:"dev_otp"`
}

type LoginResult struct {
	Message string `json:"message"`
	Token   string `json:"jwt_token"`
	User    User   `json:"user"`
}

type SessionStatus struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
	User      struct {
		ID    int64  `json:"user_id"`
		Email string `json:"email"`
	} `json:"user"`
}

type AudioFile struct {
	ID         int64     `json:"file_id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	FileSize   string    `json:"file_size"`
	SizeBytes  int64     `json:"size_bytes"`
	Duration   string    `json:"duration"`
	StatusID   int       `json:"status_id"`
	StatusName string    `json:"status_name"`
	CreatedAt  time.Time `json:"created_timestamp"`
	UpdatedAt  time.Time `json:"updated_timestamp"`
}

type Status struct {
	ID   int    `json:"status_id"`
	Name string `json:"status_name"`
}

// ListFilesOptions filters ListFiles. Zero values are not sent.
type ListFilesOptions struct {
	StatusID int
	Limit    int
	Offset   int
}

// UploadFile is one multipart part. Size is informational only.
type UploadFile struct {
	Name     string
	Body     io.Reader
	Duration string
}

// TranscriptionResult carries the raw transcription service response in Data.
type TranscriptionResult struct {
	TranscriptionID int64           `json:"transcription_id"`
	FileID          int64           `json:"file_id"`
	Data            json.RawMessage `json:"data"`
}

// Text extracts the transcript from Data, preferring clean_transcript.
func (r *TranscriptionResult) Text() string {
	var payload struct {
		Clean string `json:"clean_transcript"`
		Text  string `json:"transcript"`
	}
	if err := json.Unmarshal(r.Data, &payload); err != nil {
		return ""
	}
	if payload.Clean != "" {
		return payload.Clean
	}
	return payload.Text
}

type Transcription struct {
	ID        int64     `json:"transcription_id"`
	FileID    int64     `json:"file_id"`
	FileName  string    `json:"file_name"`
	Text      string    `json:"transcripted_text"`
	CreatedAt time.Time `json:"created_timestamp"`
}

type SentimentRequest struct {
	FileIDs     []int64 `json:"file_ids"`
	StudentName string  `json:"student_name,omitempty"`
	ParentName  string  `json:"parent_name,omitempty"`
	GradeName   string  `json:"grade_name,omitempty"`
}

type SentimentAnalysis struct {
	ID           int64     `json:"sentiment_analysis_id"`
	FileID       int64     `json:"file_id"`
	FileName     string    `json:"file_name"`
	StudentName  string    `json:"student_name"`
	ParentName   string    `json:"parent_name"`
	GradeName    string    `json:"grade_name"`
	CategoryID   int       `json:"category_id"`
	CategoryName string    `json:"category_name"`
	CreatedAt    time.Time `json:"created_timestamp"`
}

// SentimentResult is the per-file outcome of StartSentiment.
type SentimentResult struct {
	FileID   int64              `json:"file_id"`
	Analysis *SentimentAnalysis `json:"analysis"`
	Error    string             `json:"error"`
}
