package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	createErr error
	auditLogs []*models.AuditLog
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := m.users[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = uuid.NewString()
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newUserFixture() (*UserService, *mockUserRepo) {
	repo := &mockUserRepo{users: map[string]*models.User{}}
	svc := NewUserService(repo, nil, zap.NewNop())
	svc.cost = bcrypt.MinCost
	return svc, repo
}

func TestUserServiceCreateHashesPassword(t *testing.T) {
	svc, repo := newUserFixture()

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email: " Clerk@School.test ", FullName: "Fee Clerk", Role: "accountant", Password: "s3cret-pass",
	})
	require.NoError(t, err)

	assert.Equal(t, "clerk@school.test", user.Email)
	assert.Equal(t, models.RoleAccountant, user.Role)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.auditLogs[0].Action)
}

func TestUserServiceCreateRejectsDuplicateEmail(t *testing.T) {
	svc, repo := newUserFixture()
	repo.users["clerk@school.test"] = &models.User{ID: "1", Email: "clerk@school.test"}

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "clerk@school.test", FullName: "Fee Clerk", Role: models.RoleAdmin, Password: "s3cret-pass",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
}

func TestUserServiceCreateValidatesRole(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "teacher@school.test", FullName: "Teacher", Role: "TEACHER", Password: "s3cret-pass",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Details, "role")
}

func TestUserServiceCreateRepositoryFailure(t *testing.T) {
	svc, repo := newUserFixture()
	repo.createErr = errors.New("db down")

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "clerk@school.test", FullName: "Fee Clerk", Role: models.RoleAdmin, Password: "s3cret-pass",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
	assert.Empty(t, repo.auditLogs)
}
