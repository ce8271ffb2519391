package domain

// MagicLinkToken is a single-use sign-in token bound to an email address.
// PK: token. ExpiresAt is a Unix timestamp used as DynamoDB TTL, so expired
// rows are garbage-collected regardless of the Used flag. Several live
// tokens may exist for the same email; each is independently single-use.
type MagicLinkToken struct {
	Token     string `json:"-" dynamodbav:"token"`
	Email     string `json:"email" dynamodbav:"email"`
	Used      bool   `json:"used" dynamodbav:"used"`
	CreatedAt int64  `json:"created_at" dynamodbav:"created_at"` // Unix seconds
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
