package common

import (
	"regexp"
	"strings"
)

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	contactNoPattern  = regexp.MustCompile(`^[0-9]{10}$`)
	personNamePattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// NormalizeContactNo drops all whitespace from s, so "98765 43210" becomes
// the stored form "9876543210".
func NormalizeContactNo(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// IsContactNo reports whether s is ten digits once whitespace is removed.
func IsContactNo(s string) bool {
	return contactNoPattern.MatchString(NormalizeContactNo(s))
}

// IsPersonName reports whether s consists of letters and spaces only.
func IsPersonName(s string) bool {
	return personNamePattern.MatchString(s)
}

// IsEmail is a loose syntax check: something@domain.tld without spaces.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}
