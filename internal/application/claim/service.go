// Package claim manages PIP claim drafts. Creating a draft is the only
// operation that consumes entitlement; edits, reads and deletes are free,
// and deleting a draft does not refund the quota.
package claim

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/claimease-api/internal/application/entitlement"
	"github.com/claimease-api/internal/domain"
	"github.com/claimease-api/internal/pkg/id"
)

// ClaimStore is the claim storage contract.
type ClaimStore interface {
	Put(ctx context.Context, c *domain.Claim) error
	Get(ctx context.Context, claimID string) (*domain.Claim, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Claim, error)
	Update(ctx context.Context, claimID string, updates map[string]interface{}) error
	Delete(ctx context.Context, claimID string) error
}

// ObjectStore is the supporting-document storage contract.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// documentURLTTL bounds how long a handed-out download link stays valid.
const documentURLTTL = 15 * time.Minute

type Service interface {
	// Create consumes one claim from the account's quota and opens a draft.
	Create(ctx context.Context, userID string, req domain.CreateClaimRequest) (*domain.Claim, error)
	List(ctx context.Context, userID string) ([]domain.Claim, error)
	Get(ctx context.Context, userID, claimID string) (*domain.Claim, error)
	Update(ctx context.Context, userID, claimID string, req domain.UpdateClaimRequest) (*domain.Claim, error)
	Delete(ctx context.Context, userID, claimID string) error
	// AttachDocument uploads a supporting document; pro plan only.
	AttachDocument(ctx context.Context, userID, claimID, fileName, contentType string, r io.Reader) (*domain.ClaimDocument, error)
	// DocumentURL returns a short-lived download URL for an attached document.
	DocumentURL(ctx context.Context, userID, claimID, documentID string) (string, error)
	// RemoveDocument deletes an attached document and its stored object.
	RemoveDocument(ctx context.Context, userID, claimID, documentID string) error
}

type service struct {
	claims      ClaimStore
	entitlement entitlement.Service
	objects     ObjectStore
}

func NewService(claims ClaimStore, ent entitlement.Service, objects ObjectStore) Service {
	return &service{claims: claims, entitlement: ent, objects: objects}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateClaimRequest) (*domain.Claim, error) {
	if _, err := s.entitlement.StartClaim(ctx, userID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &domain.Claim{
		ClaimID:   id.New(),
		UserID:    userID,
		Title:     req.Title,
		Status:    domain.ClaimStatusDraft,
		Answers:   map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.claims.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("store claim: %w", err)
	}
	return c, nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Claim, error) {
	return s.claims.ListByUser(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, claimID string) (*domain.Claim, error) {
	return s.getOwned(ctx, userID, claimID)
}

func (s *service) Update(ctx context.Context, userID, claimID string, req domain.UpdateClaimRequest) (*domain.Claim, error) {
	c, err := s.getOwned(ctx, userID, claimID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
		c.Title = *req.Title
	}
	if req.Status != nil {
		if *req.Status != domain.ClaimStatusDraft && *req.Status != domain.ClaimStatusComplete {
			return nil, fmt.Errorf("status must be draft or complete: %w", domain.ErrBadRequest)
		}
		updates["status"] = *req.Status
		c.Status = *req.Status
	}
	if req.Answers != nil {
		// Merge step answers; the form saves one step at a time.
		if c.Answers == nil {
			c.Answers = map[string]string{}
		}
		for k, v := range req.Answers {
			c.Answers[k] = v
		}
		updates["answers"] = c.Answers
	}
	if len(updates) == 0 {
		return c, nil
	}
	if err := s.claims.Update(ctx, claimID, updates); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, userID, claimID string) error {
	if _, err := s.getOwned(ctx, userID, claimID); err != nil {
		return err
	}
	return s.claims.Delete(ctx, claimID)
}

func (s *service) AttachDocument(ctx context.Context, userID, claimID, fileName, contentType string, r io.Reader) (*domain.ClaimDocument, error) {
	st, err := s.entitlement.Status(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st.Tier != domain.TierPro {
		return nil, fmt.Errorf("document upload requires the pro plan: %w", domain.ErrForbidden)
	}
	c, err := s.getOwned(ctx, userID, claimID)
	if err != nil {
		return nil, err
	}

	doc := domain.ClaimDocument{
		DocumentID: id.New(),
		FileName:   fileName,
		UploadedAt: time.Now().UTC(),
	}
	doc.S3Key = fmt.Sprintf("claims/%s/%s/%s", userID, claimID, doc.DocumentID)
	if _, err := s.objects.Upload(ctx, doc.S3Key, r, contentType); err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	c.Documents = append(c.Documents, doc)
	if err := s.claims.Update(ctx, claimID, map[string]interface{}{"documents": c.Documents}); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *service) DocumentURL(ctx context.Context, userID, claimID, documentID string) (string, error) {
	c, err := s.getOwned(ctx, userID, claimID)
	if err != nil {
		return "", err
	}
	doc, _, err := findDocument(c, documentID)
	if err != nil {
		return "", err
	}
	return s.objects.PresignedURL(ctx, doc.S3Key, documentURLTTL)
}

func (s *service) RemoveDocument(ctx context.Context, userID, claimID, documentID string) error {
	c, err := s.getOwned(ctx, userID, claimID)
	if err != nil {
		return err
	}
	doc, idx, err := findDocument(c, documentID)
	if err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, doc.S3Key); err != nil {
		return fmt.Errorf("delete document object: %w", err)
	}
	c.Documents = append(c.Documents[:idx], c.Documents[idx+1:]...)
	return s.claims.Update(ctx, claimID, map[string]interface{}{"documents": c.Documents})
}

func findDocument(c *domain.Claim, documentID string) (*domain.ClaimDocument, int, error) {
	for i := range c.Documents {
		if c.Documents[i].DocumentID == documentID {
			return &c.Documents[i], i, nil
		}
	}
	return nil, 0, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
}

// getOwned fetches the claim and hides other users' claims behind NotFound
// rather than Forbidden, so claim IDs cannot be probed.
func (s *service) getOwned(ctx context.Context, userID, claimID string) (*domain.Claim, error) {
	c, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("claim %s: %w", claimID, domain.ErrNotFound)
	}
	return c, nil
}
