package magiclink

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/claimease-api/internal/domain"
)

// --- mocks ---

type mockTokenStore struct{ mock.Mock }

func (m *mockTokenStore) Put(ctx context.Context, t *domain.MagicLinkToken) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTokenStore) Get(ctx context.Context, tok string) (*domain.MagicLinkToken, error) {
	args := m.Called(ctx, tok)
	if t, _ := args.Get(0).(*domain.MagicLinkToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenStore) Consume(ctx context.Context, tok string) error {
	return m.Called(ctx, tok).Error(0)
}

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) Put(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockLimiter struct{ mock.Mock }

func (m *mockLimiter) Allow(ctx context.Context, identity string) (bool, time.Time, error) {
	args := m.Called(ctx, identity)
	return args.Bool(0), args.Get(1).(time.Time), args.Error(2)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(a *domain.Account, sessionID string) (string, error) {
	args := m.Called(a, sessionID)
	return args.String(0), args.Error(1)
}

// --- builder ---

func newService(ts *mockTokenStore, as *mockAccountStore, ml *mockMailer, rl *mockLimiter, sg *mockSigner, now time.Time) *service {
	return &service{
		tokens:   ts,
		accounts: as,
		mailer:   ml,
		limiter:  rl,
		signer:   sg,
		ttl:      15 * time.Minute,
		appURL:   "https://claimease.example",
		now:      func() time.Time { return now },
	}
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// --- Issue ---

func TestIssue_HappyPath(t *testing.T) {
	ts := &mockTokenStore{}
	ml := &mockMailer{}
	rl := &mockLimiter{}
	rl.On("Allow", mock.Anything, "a@b.com").Return(true, time.Time{}, nil)
	ts.On("Put", mock.Anything, mock.AnythingOfType("*domain.MagicLinkToken")).Return(nil)
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(ts, nil, ml, rl, nil, fixedNow)
	res, err := svc.Issue(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.Equal(t, 15, res.ExpiresInMinutes)
	parsed, err := url.Parse(res.Link)
	require.NoError(t, err)
	assert.Equal(t, "https://claimease.example/auth/verify", parsed.Scheme+"://"+parsed.Host+parsed.Path)
	assert.Equal(t, "a@b.com", parsed.Query().Get("email"))

	stored := ts.Calls[0].Arguments.Get(1).(*domain.MagicLinkToken)
	assert.Equal(t, stored.Token, parsed.Query().Get("token"))
	assert.Len(t, stored.Token, 64) // 32 random bytes, hex-encoded
	assert.False(t, stored.Used)
	assert.Equal(t, fixedNow.Add(15*time.Minute).Unix(), stored.ExpiresAt)
	ts.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestIssue_PlusAddressedEmail_LinkRoundTrips(t *testing.T) {
	// A plus-addressed email pasted into the query string unescaped would
	// decode as a space and fail every verify with a mismatch.
	ts := &mockTokenStore{}
	ml := &mockMailer{}
	rl := &mockLimiter{}
	rl.On("Allow", mock.Anything, "a+b@x.com").Return(true, time.Time{}, nil)
	ts.On("Put", mock.Anything, mock.AnythingOfType("*domain.MagicLinkToken")).Return(nil)
	ml.On("SendEmail", "a+b@x.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(ts, nil, ml, rl, nil, fixedNow)
	res, err := svc.Issue(context.Background(), "a+b@x.com")

	require.NoError(t, err)
	parsed, err := url.Parse(res.Link)
	require.NoError(t, err)
	stored := ts.Calls[0].Arguments.Get(1).(*domain.MagicLinkToken)
	assert.Equal(t, "a+b@x.com", parsed.Query().Get("email"))
	assert.Equal(t, stored.Token, parsed.Query().Get("token"))
}

func TestIssue_InvalidEmail_RejectedBeforeRateLimiter(t *testing.T) {
	rl := &mockLimiter{}

	svc := newService(nil, nil, nil, rl, nil, fixedNow)
	_, err := svc.Issue(context.Background(), "not-an-email")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	rl.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything)
}

func TestIssue_RateLimited(t *testing.T) {
	rl := &mockLimiter{}
	resetAt := fixedNow.Add(40 * time.Minute)
	rl.On("Allow", mock.Anything, "a@b.com").Return(false, resetAt, nil)

	svc := newService(nil, nil, nil, rl, nil, fixedNow)
	_, err := svc.Issue(context.Background(), "a@b.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))

	var rle *domain.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, resetAt, rle.ResetAt)
}

func TestIssue_TokensAreIndependent(t *testing.T) {
	// Two issuances for the same email store two distinct tokens; issuing
	// must never touch earlier links.
	ts := &mockTokenStore{}
	ml := &mockMailer{}
	rl := &mockLimiter{}
	rl.On("Allow", mock.Anything, "a@b.com").Return(true, time.Time{}, nil)
	ts.On("Put", mock.Anything, mock.AnythingOfType("*domain.MagicLinkToken")).Return(nil)
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(ts, nil, ml, rl, nil, fixedNow)
	_, err := svc.Issue(context.Background(), "a@b.com")
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), "a@b.com")
	require.NoError(t, err)

	first := ts.Calls[0].Arguments.Get(1).(*domain.MagicLinkToken)
	second := ts.Calls[1].Arguments.Get(1).(*domain.MagicLinkToken)
	assert.NotEqual(t, first.Token, second.Token)
}

// --- Verify ---

func validToken() *domain.MagicLinkToken {
	return &domain.MagicLinkToken{
		Token:     "tok",
		Email:     "a@b.com",
		Used:      false,
		CreatedAt: fixedNow.Unix(),
		ExpiresAt: fixedNow.Add(15 * time.Minute).Unix(),
	}
}

func TestVerify_HappyPath_ExistingAccount(t *testing.T) {
	ts := &mockTokenStore{}
	as := &mockAccountStore{}
	sg := &mockSigner{}
	acct := &domain.Account{UserID: "u1", Email: "a@b.com", Tier: domain.TierStandard}
	ts.On("Get", mock.Anything, "tok").Return(validToken(), nil)
	ts.On("Consume", mock.Anything, "tok").Return(nil)
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(acct, nil)
	sg.On("Sign", acct, mock.Anything).Return("signed", nil)

	svc := newService(ts, as, nil, nil, sg, fixedNow)
	res, err := svc.Verify(context.Background(), "tok", "a@b.com")

	require.NoError(t, err)
	assert.Equal(t, "signed", res.Bearer)
	assert.Equal(t, "u1", res.Account.UserID)
	assert.NotEmpty(t, res.SessionID)
	ts.AssertExpectations(t)
}

func TestVerify_FirstSignIn_CreatesFreeAccount(t *testing.T) {
	ts := &mockTokenStore{}
	as := &mockAccountStore{}
	sg := &mockSigner{}
	ts.On("Get", mock.Anything, "tok").Return(validToken(), nil)
	ts.On("Consume", mock.Anything, "tok").Return(nil)
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	as.On("Put", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)
	sg.On("Sign", mock.Anything, mock.Anything).Return("signed", nil)

	svc := newService(ts, as, nil, nil, sg, fixedNow)
	res, err := svc.Verify(context.Background(), "tok", "a@b.com")

	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, res.Account.Tier)
	assert.Equal(t, 0, res.Account.ClaimsUsed)
	as.AssertExpectations(t)
}

func TestVerify_UnknownToken(t *testing.T) {
	ts := &mockTokenStore{}
	ts.On("Get", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	svc := newService(ts, nil, nil, nil, nil, fixedNow)
	_, err := svc.Verify(context.Background(), "nope", "a@b.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerify_EmailMismatch(t *testing.T) {
	ts := &mockTokenStore{}
	ts.On("Get", mock.Anything, "tok").Return(validToken(), nil)

	svc := newService(ts, nil, nil, nil, nil, fixedNow)
	_, err := svc.Verify(context.Background(), "tok", "other@b.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmailMismatch))
	ts.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything)
}

func TestVerify_AlreadyUsed(t *testing.T) {
	ts := &mockTokenStore{}
	tok := validToken()
	tok.Used = true
	ts.On("Get", mock.Anything, "tok").Return(tok, nil)

	svc := newService(ts, nil, nil, nil, nil, fixedNow)
	_, err := svc.Verify(context.Background(), "tok", "a@b.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyUsed))
}

func TestVerify_ExpiredJustPast(t *testing.T) {
	ts := &mockTokenStore{}
	ts.On("Get", mock.Anything, "tok").Return(validToken(), nil)

	// 15m01s after issuance: one second past the window.
	svc := newService(ts, nil, nil, nil, nil, fixedNow.Add(15*time.Minute+time.Second))
	_, err := svc.Verify(context.Background(), "tok", "a@b.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExpired))
	ts.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything)
}

func TestVerify_AtExactExpiry_StillValid(t *testing.T) {
	ts := &mockTokenStore{}
	as := &mockAccountStore{}
	sg := &mockSigner{}
	acct := &domain.Account{UserID: "u1", Email: "a@b.com"}
	ts.On("Get", mock.Anything, "tok").Return(validToken(), nil)
	ts.On("Consume", mock.Anything, "tok").Return(nil)
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(acct, nil)
	sg.On("Sign", acct, mock.Anything).Return("signed", nil)

	svc := newService(ts, as, nil, nil, sg, fixedNow.Add(15*time.Minute))
	_, err := svc.Verify(context.Background(), "tok", "a@b.com")

	require.NoError(t, err)
}

func TestVerify_AccountLookupFault_NoDuplicateAccount(t *testing.T) {
	// A throttled lookup must surface as an error, not mint a second free
	// account for an email that already owns one.
	ts := &mockTokenStore{}
	as := &mockAccountStore{}
	ts.On("Get", mock.Anything, "tok").Return(validToken(), nil)
	ts.On("Consume", mock.Anything, "tok").Return(nil)
	lookupErr := errors.New("dynamo: GSI throttled")
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, lookupErr)

	svc := newService(ts, as, nil, nil, nil, fixedNow)
	_, err := svc.Verify(context.Background(), "tok", "a@b.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, lookupErr))
	as.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestVerify_ConcurrentLoser_AlreadyUsed(t *testing.T) {
	// Both callers saw used=false; the conditional flip decides the winner.
	ts := &mockTokenStore{}
	ts.On("Get", mock.Anything, "tok").Return(validToken(), nil)
	ts.On("Consume", mock.Anything, "tok").Return(domain.ErrAlreadyUsed)

	svc := newService(ts, nil, nil, nil, nil, fixedNow)
	_, err := svc.Verify(context.Background(), "tok", "a@b.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyUsed))
}
