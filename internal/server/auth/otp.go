package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
)

const (
	otpMin = 100000
	otpMax = 999999
)

// GenerateOTP returns a six digit code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// HashOTP binds code to userID under secretKey. Only the hash is stored.
func HashOTP(secretKey []byte, userID int64, code string) string {
	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(strconv.FormatInt(userID, 10) + ":" + code))
	return hex.EncodeToString(mac.Sum(nil))
}
