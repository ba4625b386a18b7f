package slogx

import "strings"

// RedactEmail masks the local part of an email address for logging, keeping
// the first character and the domain: "alice@example.com" -> "a***@example.com".
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
