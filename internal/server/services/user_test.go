package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naimehossein77/gym-nfc/internal/common"
	"github.com/Naimehossein77/gym-nfc/internal/server/auth"
	"github.com/Naimehossein77/gym-nfc/internal/server/config"
	"github.com/Naimehossein77/gym-nfc/internal/server/models"
)

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error

	lastCreated *models.User
	gets        int
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.lastCreated = u
	if f.createOut != nil {
		return f.createOut, nil
	}
	out := *u
	out.ID = 1
	return &out, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func newUserService(t *testing.T, rm *fakeRepoManager) *UserService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { db.Close() })
	cfg := &config.Config{
		JWTSecretKey:                "k",
		AccessTokenValidityDuration: time.Hour,
	}
	return NewUserService(db, rm, cfg)
}

func TestRegister(t *testing.T) {
	rm := &fakeRepoManager{usr: &fakeUsersRepo{}}
	s := newUserService(t, rm)

	u, err := s.Register(context.Background(), "front-desk", "s3cret", models.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, "front-desk", u.Username)
	assert.Equal(t, models.RoleStaff, u.Role)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.True(t, auth.CheckPassword("s3cret", u.PasswordHash))
}

func TestEnsureAccount_SeedsWhenMissing(t *testing.T) {
	repo := &fakeUsersRepo{getErr: common.ErrorNotFound}
	rm := &fakeRepoManager{usr: repo}
	s := newUserService(t, rm)

	created, err := s.EnsureAccount(context.Background(), "admin", "admin123", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, repo.lastCreated)
	assert.Equal(t, "admin", repo.lastCreated.Username)
	assert.Equal(t, models.RoleAdmin, repo.lastCreated.Role)
	assert.True(t, auth.CheckPassword("admin123", repo.lastCreated.PasswordHash))
}

func TestEnsureAccount_NoopWhenPresent(t *testing.T) {
	repo := &fakeUsersRepo{getOut: &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin, IsActive: true}}
	rm := &fakeRepoManager{usr: repo}
	s := newUserService(t, rm)

	created, err := s.EnsureAccount(context.Background(), "admin", "admin123", models.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, repo.lastCreated)
}

func TestEnsureAccount_DisabledWithoutPassword(t *testing.T) {
	repo := &fakeUsersRepo{}
	rm := &fakeRepoManager{usr: repo}
	s := newUserService(t, rm)

	created, err := s.EnsureAccount(context.Background(), "admin", "", models.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, repo.gets)
}

func TestEnsureAccount_LookupFailure(t *testing.T) {
	rm := &fakeRepoManager{usr: &fakeUsersRepo{getErr: errors.New("boom")}}
	s := newUserService(t, rm)

	_, err := s.EnsureAccount(context.Background(), "admin", "admin123", models.RoleAdmin)
	require.Error(t, err)
}

func TestLogin_Success(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)

	rm := &fakeRepoManager{usr: &fakeUsersRepo{
		getOut: &models.User{ID: 1, Username: "front-desk", PasswordHash: hash, Role: models.RoleStaff, IsActive: true},
	}}
	s := newUserService(t, rm)

	token, err := s.Login(context.Background(), "front-desk", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ParseToken(token, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "front-desk", claims.Username)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)

	rm := &fakeRepoManager{usr: &fakeUsersRepo{
		getOut: &models.User{ID: 1, Username: "front-desk", PasswordHash: hash, IsActive: true},
	}}
	s := newUserService(t, rm)

	_, err = s.Login(context.Background(), "front-desk", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestLogin_UnknownUser(t *testing.T) {
	rm := &fakeRepoManager{usr: &fakeUsersRepo{getErr: common.ErrorNotFound}}
	s := newUserService(t, rm)

	_, err := s.Login(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestLogin_RepoFailure(t *testing.T) {
	rm := &fakeRepoManager{usr: &fakeUsersRepo{getErr: errors.New("boom")}}
	s := newUserService(t, rm)

	_, err := s.Login(context.Background(), "front-desk", "s3cret")
	assert.ErrorIs(t, err, common.ErrorInternal)
}
