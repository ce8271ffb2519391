// Package suggest rewrites a claimant's draft answers into assessment-ready
// statements via the completion API. Paid plans only.
package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/claimease-api/internal/application/entitlement"
	"github.com/claimease-api/internal/domain"
	"github.com/claimease-api/internal/infrastructure/ai"
)

const systemPrompt = `You are ClaimEase, an assistant that helps people in the UK complete their Personal Independence Payment (PIP) claim. Rewrite the user's answer into a clear, detailed first-person statement suitable for a PIP claim form. Keep every fact the user gave, expand abbreviations, and describe frequency, duration and the help needed where the user mentioned them. Do not invent symptoms, diagnoses or events the user did not state. Reply with the rewritten statement only.`

// Chatter is the completion client contract.
type Chatter interface {
	Chat(ctx context.Context, req *ai.ChatRequest) (*ai.ChatResponse, error)
}

type Request struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

type Result struct {
	Suggestion string `json:"suggestion"`
}

type Service interface {
	// Rewrite returns a polished version of the claimant's answer.
	Rewrite(ctx context.Context, userID string, req Request) (*Result, error)
}

type service struct {
	chat        Chatter
	entitlement entitlement.Service
}

func NewService(chat Chatter, ent entitlement.Service) Service {
	return &service{chat: chat, entitlement: ent}
}

func (s *service) Rewrite(ctx context.Context, userID string, req Request) (*Result, error) {
	st, err := s.entitlement.Status(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st.Tier == domain.TierFree {
		return nil, fmt.Errorf("answer rewriting requires a paid plan: %w", domain.ErrForbidden)
	}

	resp, err := s.chat.Chat(ctx, &ai.ChatRequest{
		Messages: []ai.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Question: %s\n\nMy answer: %s", req.Question, req.Answer)},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}
	return &Result{Suggestion: strings.TrimSpace(resp.Choices[0].Message.Content)}, nil
}
