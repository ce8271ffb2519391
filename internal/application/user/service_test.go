package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/claimease-api/internal/domain"
	"github.com/claimease-api/internal/infrastructure/google"
)

// --- mocks ---

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Get(ctx context.Context, userID string) (*domain.Account, error) {
	args := m.Called(ctx, userID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
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
func (m *mockAccountStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockAccountStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(a *domain.Account, sessionID string) (string, error) {
	args := m.Called(a, sessionID)
	return args.String(0), args.Error(1)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(ctx context.Context, token string) (*google.Payload, error) {
	args := m.Called(ctx, token)
	if p, _ := args.Get(0).(*google.Payload); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func hashOf(pw string) string {
	h, _ := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	return string(h)
}

// --- Register ---

func TestRegister_WeakPassword_BadRequest(t *testing.T) {
	svc := NewService(nil, nil, nil)

	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email: "a@b.com", Password: "short",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRegister_EmailTaken_Conflict(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Account{UserID: "u1"}, nil)

	svc := NewService(as, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email: "a@b.com", Password: "Str0ngPass",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRegister_HappyPath_FreeTier(t *testing.T) {
	as := &mockAccountStore{}
	sg := &mockSigner{}
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	as.On("Put", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)
	sg.On("Sign", mock.Anything, mock.Anything).Return("signed", nil)

	svc := NewService(as, sg, nil)
	res, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email: "a@b.com", Name: "Ana", Password: "Str0ngPass",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, res.Account.Tier)
	assert.Equal(t, "signed", res.Bearer)
	assert.NotEqual(t, "Str0ngPass", res.Account.PasswordHash)
	as.AssertExpectations(t)
}

// --- Login ---

func TestLogin_UnknownEmail_GenericUnauthorized(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "x@x.com").Return(nil, domain.ErrNotFound)

	svc := NewService(as, nil, nil)
	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "x@x.com", Password: "whatever"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLogin_WrongPassword_GenericUnauthorized(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Account{
		UserID: "u1", Email: "a@b.com", PasswordHash: hashOf("Correct1"), Enable: true,
	}, nil)

	svc := NewService(as, nil, nil)
	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@b.com", Password: "Wrong1aa"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLogin_Disabled_Unauthorized(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Account{
		UserID: "u1", PasswordHash: hashOf("Correct1"), Enable: false,
	}, nil)

	svc := NewService(as, nil, nil)
	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@b.com", Password: "Correct1"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_HappyPath(t *testing.T) {
	as := &mockAccountStore{}
	sg := &mockSigner{}
	acct := &domain.Account{UserID: "u1", Email: "a@b.com", PasswordHash: hashOf("Correct1"), Enable: true}
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(acct, nil)
	sg.On("Sign", acct, mock.Anything).Return("signed", nil)

	svc := NewService(as, sg, nil)
	res, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@b.com", Password: "Correct1"})

	require.NoError(t, err)
	assert.Equal(t, "signed", res.Bearer)
	assert.NotEmpty(t, res.SessionID)
}

// --- LoginWithGoogle ---

func TestLoginWithGoogle_NotConfigured(t *testing.T) {
	svc := NewService(nil, nil, nil)

	_, err := svc.LoginWithGoogle(context.Background(), "idtok")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestLoginWithGoogle_UnverifiedEmail(t *testing.T) {
	gv := &mockVerifier{}
	gv.On("Verify", mock.Anything, "idtok").Return(&google.Payload{
		Sub: "sub1", Email: "a@b.com", EmailVerified: false,
	}, nil)

	svc := NewService(nil, nil, gv)
	_, err := svc.LoginWithGoogle(context.Background(), "idtok")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLoginWithGoogle_FirstSignIn_CreatesAccount(t *testing.T) {
	as := &mockAccountStore{}
	sg := &mockSigner{}
	gv := &mockVerifier{}
	gv.On("Verify", mock.Anything, "idtok").Return(&google.Payload{
		Sub: "sub1", Email: "a@b.com", EmailVerified: true, Name: "Ana",
	}, nil)
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	as.On("Put", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)
	sg.On("Sign", mock.Anything, mock.Anything).Return("signed", nil)

	svc := NewService(as, sg, gv)
	res, err := svc.LoginWithGoogle(context.Background(), "idtok")

	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, res.Account.Tier)
	assert.Equal(t, "google", res.Account.AuthProvider)
	assert.Equal(t, "sub1", res.Account.GoogleSub)
	as.AssertExpectations(t)
}

func TestLoginWithGoogle_LookupFault_NoDuplicateAccount(t *testing.T) {
	// A transient lookup fault must not create a second account for an
	// email that already has one.
	as := &mockAccountStore{}
	gv := &mockVerifier{}
	gv.On("Verify", mock.Anything, "idtok").Return(&google.Payload{
		Sub: "sub1", Email: "a@b.com", EmailVerified: true,
	}, nil)
	lookupErr := errors.New("dynamo: GSI throttled")
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, lookupErr)

	svc := NewService(as, nil, gv)
	_, err := svc.LoginWithGoogle(context.Background(), "idtok")

	require.Error(t, err)
	assert.True(t, errors.Is(err, lookupErr))
	as.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_LookupFault_Propagates(t *testing.T) {
	as := &mockAccountStore{}
	lookupErr := errors.New("dynamo: GSI throttled")
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, lookupErr)

	svc := NewService(as, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email: "a@b.com", Password: "GoodPass1", Name: "Ana",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, lookupErr))
	as.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- UpdateEmail / UpdatePassword ---

func TestUpdateEmail_WrongPassword(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "u1").Return(&domain.Account{UserID: "u1", PasswordHash: hashOf("Correct1")}, nil)

	svc := NewService(as, nil, nil)
	err := svc.UpdateEmail(context.Background(), "u1", domain.UpdateEmailRequest{
		NewEmail: "new@b.com", Password: "Wrong1aa",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestUpdateEmail_TargetTaken_Conflict(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "u1").Return(&domain.Account{UserID: "u1", PasswordHash: hashOf("Correct1")}, nil)
	as.On("GetByEmail", mock.Anything, "new@b.com").Return(&domain.Account{UserID: "u2"}, nil)

	svc := NewService(as, nil, nil)
	err := svc.UpdateEmail(context.Background(), "u1", domain.UpdateEmailRequest{
		NewEmail: "new@b.com", Password: "Correct1",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestUpdatePassword_HappyPath_StoresNewHash(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "u1").Return(&domain.Account{UserID: "u1", PasswordHash: hashOf("Correct1")}, nil)
	as.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)

	svc := NewService(as, nil, nil)
	err := svc.UpdatePassword(context.Background(), "u1", domain.UpdatePasswordRequest{
		CurrentPassword: "Correct1", NewPassword: "NewPass99",
	})

	require.NoError(t, err)
	updates := as.Calls[1].Arguments.Get(2).(map[string]interface{})
	newHash := updates["password_hash"].(string)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("NewPass99")))
}

// --- Deactivate ---

func TestDeactivate_DisablesAccount(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "u1").Return(&domain.Account{UserID: "u1", Enable: true}, nil)
	as.On("SoftDelete", mock.Anything, "u1").Return(nil)

	svc := NewService(as, nil, nil)
	err := svc.Deactivate(context.Background(), "u1")

	require.NoError(t, err)
	as.AssertExpectations(t)
}

func TestDeactivate_UnknownAccount_NotFound(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	svc := NewService(as, nil, nil)
	err := svc.Deactivate(context.Background(), "nope")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	as.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}
