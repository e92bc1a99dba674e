package models

import "time"

// OTP is a pending login code. Only the HMAC of the code is stored.
type OTP struct {
	ID        int64
	UserID    int64
	CodeHash  string
	CreatedAt time.Time
}
