package models

import "time"

type Transcription struct {
	ID        int64     `json:"transcription_id"`
	FileID    int64     `json:"file_id"`
	FileName  string    `json:"file_name,omitempty"`
	Text      string    `json:"transcripted_text"`
	CreatedAt time.Time `json:"created_timestamp"`
	UpdatedAt time.Time `json:"updated_timestamp"`
	CreatedBy string    `json:"created_by"`
}
