package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/claimease-api/internal/application/magiclink"
	"github.com/claimease-api/internal/domain"
	"github.com/claimease-api/internal/transport/http/middleware"
)

type mockMagicLinkService struct{ mock.Mock }

func (m *mockMagicLinkService) Issue(ctx context.Context, email string) (*magiclink.IssueResult, error) {
	args := m.Called(ctx, email)
	if r, _ := args.Get(0).(*magiclink.IssueResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMagicLinkService) Verify(ctx context.Context, tok, email string) (*magiclink.VerifyResult, error) {
	args := m.Called(ctx, tok, email)
	if r, _ := args.Get(0).(*magiclink.VerifyResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func timeNowPlusMinutes(m int) time.Time {
	return time.Now().Add(time.Duration(m) * time.Minute)
}

func TestMagicLinkIssue_MissingEmail(t *testing.T) {
	h := NewMagicLinkHandler(&mockMagicLinkService{}, SessionCookies{}, false)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/magic-link", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Issue(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMagicLinkIssue_EchoesLinkOnlyWhenEnabled(t *testing.T) {
	svc := &mockMagicLinkService{}
	svc.On("Issue", mock.Anything, "a@b.com").Return(&magiclink.IssueResult{
		Link: "https://claimease.example/auth/verify?token=t", ExpiresInMinutes: 15,
	}, nil)

	for _, echo := range []bool{true, false} {
		h := NewMagicLinkHandler(svc, SessionCookies{}, echo)
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/magic-link", strings.NewReader(`{"email":"a@b.com"}`))
		rec := httptest.NewRecorder()
		h.Issue(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body issueResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 15, body.ExpiresInMinutes)
		if echo {
			assert.NotEmpty(t, body.Link)
		} else {
			assert.Empty(t, body.Link)
		}
	}
}

func TestMagicLinkIssue_RateLimited_SetsRetryAfter(t *testing.T) {
	svc := &mockMagicLinkService{}
	svc.On("Issue", mock.Anything, "a@b.com").Return(nil, &domain.RateLimitError{
		ResetAt: timeNowPlusMinutes(40),
	})

	h := NewMagicLinkHandler(svc, SessionCookies{}, false)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/magic-link", strings.NewReader(`{"email":"a@b.com"}`))
	rec := httptest.NewRecorder()
	h.Issue(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestMagicLinkVerify_QueryParams_SetsSessionCookie(t *testing.T) {
	svc := &mockMagicLinkService{}
	svc.On("Verify", mock.Anything, "tok", "a@b.com").Return(&magiclink.VerifyResult{
		Account: &domain.Account{UserID: "u1", Email: "a@b.com", Tier: domain.TierFree},
		Bearer:  "signed",
	}, nil)

	h := NewMagicLinkHandler(svc, SessionCookies{MaxAge: 3600}, false)
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/magic-link/verify?token=tok&email=a%40b.com", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	assert.Equal(t, "signed", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	var body AccountEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u1", body.Account.ID)
}

func TestMagicLinkVerify_Replay_Unprocessable(t *testing.T) {
	svc := &mockMagicLinkService{}
	svc.On("Verify", mock.Anything, "tok", "a@b.com").Return(nil, domain.ErrAlreadyUsed)

	h := NewMagicLinkHandler(svc, SessionCookies{}, false)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/magic-link/verify",
		strings.NewReader(`{"token":"tok","email":"a@b.com"}`))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}
