package models

import "time"

// SentimentAnalysis records the category assigned to a file's transcript
// together with the review metadata entered by the user.
type SentimentAnalysis struct {
	ID           int64     `json:"sentiment_analysis_id"`
	FileID       int64     `json:"file_id"`
	FileName     string    `json:"file_name,omitempty"`
	StudentName  string    `json:"student_name"`
	ParentName   string    `json:"parent_name"`
	GradeName    string    `json:"grade_name"`
	CategoryID   int       `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	CreatedAt    time.Time `json:"created_timestamp"`
	CreatedBy    string    `json:"created_by"`
}
