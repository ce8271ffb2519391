package domain

import "time"

// Claim statuses.
const (
	ClaimStatusDraft    = "draft"
	ClaimStatusComplete = "complete"
)

// Claim is a PIP claim draft. Answers is keyed by form field name
// (preparingFood, movingAround, ...) across the personal-details, health,
// daily-living and mobility steps.
type Claim struct {
	ClaimID   string            `json:"id" dynamodbav:"claim_id"`
	UserID    string            `json:"user_id" dynamodbav:"user_id"`
	Title     string            `json:"title" dynamodbav:"title"`
	Status    string            `json:"status" dynamodbav:"status"`
	Answers   map[string]string `json:"answers" dynamodbav:"answers"`
	Documents []ClaimDocument   `json:"documents,omitempty" dynamodbav:"documents"`
	CreatedAt time.Time         `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time         `json:"updated" dynamodbav:"updated_at"`
}

// ClaimDocument records a supporting document uploaded to object storage.
type ClaimDocument struct {
	DocumentID string    `json:"id" dynamodbav:"document_id"`
	FileName   string    `json:"file_name" dynamodbav:"file_name"`
	S3Key      string    `json:"-" dynamodbav:"s3_key"`
	UploadedAt time.Time `json:"uploaded" dynamodbav:"uploaded_at"`
}

type CreateClaimRequest struct {
	Title string `json:"title" validate:"required"`
}

type UpdateClaimRequest struct {
	Title   *string           `json:"title"`
	Status  *string           `json:"status"`
	Answers map[string]string `json:"answers"`
}
