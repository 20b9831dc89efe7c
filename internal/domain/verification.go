package domain

import "time"

// EmailVerification is the pending proof-of-email secret for one address.
// PK: email. ExpiresAt doubles as the DynamoDB TTL attribute.
type EmailVerification struct {
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"-" dynamodbav:"code"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at,unixtime"`
}

// Expired reports whether the entry is no longer claimable at now.
func (v *EmailVerification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
