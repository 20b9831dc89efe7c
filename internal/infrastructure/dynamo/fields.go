package dynamo

// DynamoDB attribute names used in update and condition expressions.
const (
	fieldUserID    = "user_id"
	fieldVerified  = "verified"
	fieldUpdatedAt = "updated_at"
	fieldToken     = "token"
	fieldUsed      = "used"
	fieldUsedAt    = "used_at"
	fieldExpiresAt = "expires_at"
	fieldEmail     = "email"
	fieldCode      = "code"
)
