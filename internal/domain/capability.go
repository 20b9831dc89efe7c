package domain

import "time"

// Capability is a single-use, time-bound download token bound to one file
// and one client. Rows are never deleted; they age out through ExpiresAt and Used.
type Capability struct {
	Token     string     `json:"-" dynamodbav:"token"`
	FileID    string     `json:"file_id" dynamodbav:"file_id"`
	ClientID  string     `json:"client_id" dynamodbav:"client_id"`
	ExpiresAt time.Time  `json:"expires_at" dynamodbav:"expires_at,unixtime"`
	Used      bool       `json:"used" dynamodbav:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty" dynamodbav:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" dynamodbav:"created_at"`
}

// Redeemable reports whether the token is unused and unexpired at now.
func (c *Capability) Redeemable(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}
