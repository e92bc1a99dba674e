package models

// Status is a processing state of an audio file.
type Status struct {
	ID   int    `json:"status_id"`
	Name string `json:"status_name"`
}

// Category is a sentiment category.
type Category struct {
	ID   int    `json:"category_id"`
	Name string `json:"category_name"`
}
