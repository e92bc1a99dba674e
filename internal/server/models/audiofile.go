package models

import "time"

// AudioFile is the metadata row of an uploaded recording. The audio itself
// lives in object storage under StorageKey.
type AudioFile struct {
	ID         int64     `json:"file_id"`
	UserID     int64     `json:"user_id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	FileSize   string    `json:"file_size"`
	SizeBytes  int64     `json:"size_bytes"`
	Duration   string    `json:"duration"`
	StorageKey string    `json:"file_path"`
	StatusID   int       `json:"status_id"`
	StatusName string    `json:"status_name"`
	CreatedAt  time.Time `json:"created_timestamp"`
	UpdatedAt  time.Time `json:"updated_timestamp"`
	CreatedBy  string    `json:"created_by"`
	UpdatedBy  string    `json:"updated_by"`
}

// FileQuery filters a user's file listing. Zero StatusID means any status;
// zero Limit means no limit.
type FileQuery struct {
	StatusID int
	Limit    int
	Offset   int
}
