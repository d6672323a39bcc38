package auth

import (
	"context"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	domainauth "tradepost/internal/domain/auth"
	domainuser "tradepost/internal/domain/user"
	"tradepost/internal/infra/security"
	"tradepost/internal/infra/storage/memory"
)

func newAuthService(t *testing.T) *Service {
	t.Helper()
	return &Service{
		Users:      memory.NewUserRepository(),
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
		Logger:     slogt.New(t),
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{
		Email:    "Alice@Example.com",
		Name:     "Alice",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", registered.User.Email)
	assert.NotEmpty(t, registered.Token)

	logged, err := svc.Login(ctx, LoginParams{Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, logged.User.ID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{Email: "a@b.c", Name: "A", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginParams{Email: "a@b.c", Password: "battery staple"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailLooksLikeBadCredentials(t *testing.T) {
	svc := newAuthService(t)
	_, err := svc.Login(context.Background(), LoginParams{Email: "ghost@b.c", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{Email: "a@b.c", Name: "A", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterParams{Email: "A@B.C", Name: "Imposter", Password: "correct horse"})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newAuthService(t)
	_, err := svc.Register(context.Background(), RegisterParams{Email: "a@b.c", Name: "A", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestResolveTokenRoundTrip(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{Email: "a@b.c", Name: "A", Password: "correct horse"})
	require.NoError(t, err)

	resolved, err := svc.ResolveToken(ctx, registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resolved.User.ID)

	require.NoError(t, svc.Logout(ctx, registered.Token))
	_, err = svc.ResolveToken(ctx, registered.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestResolveTokenExpiredSession(t *testing.T) {
	svc := newAuthService(t)
	svc.SessionTTL = time.Millisecond
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{Email: "a@b.c", Name: "A", Password: "correct horse"})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.ResolveToken(ctx, registered.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}
