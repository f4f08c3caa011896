package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/streamvault/streamvault-backend/pkg/auth"
	"github.com/streamvault/streamvault-backend/pkg/config"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	"github.com/streamvault/streamvault-backend/pkg/enums"
	pkgerrors "github.com/streamvault/streamvault-backend/pkg/errors"
	"github.com/streamvault/streamvault-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:                 "test-secret",
	Issuer:                 "streamvault-test",
	ExpirationMinutes:      15,
	RefreshTokenTTLMinutes: 43200,
}

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type stubUserRepo struct {
	byEmail     map[string]*models.User
	lastLoginID uuid.UUID
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLoginID = id
	return nil
}

type stubSessionManager struct {
	generated []string
	revoked   []string
	rotateErr error
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	return "new-access-id", "new-refresh-token", nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func seedUser(t *testing.T, role enums.UserRole, email, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     "Test User",
		Role:         role,
	}
}

func newAuthService(t *testing.T, repo userRepository, session sessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: session,
		JWTConfig:      testJWTConfig,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestLogin_Success(t *testing.T) {
	user := seedUser(t, enums.UserRoleCustomer, "jo@example.com", "hunter22hunter")
	repo := &stubUserRepo{byEmail: map[string]*models.User{"jo@example.com": user}}
	sessions := &stubSessionManager{}
	svc := newAuthService(t, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  JO@example.com ",
		Password: "hunter22hunter",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", resp)
	}
	if resp.User == nil || resp.User.Email != "jo@example.com" {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}
	if repo.lastLoginID != user.ID {
		t.Fatalf("last login not recorded")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if len(sessions.generated) != 1 || sessions.generated[0] != claims.ID {
		t.Fatalf("refresh session not keyed by jti")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	user := seedUser(t, enums.UserRoleCustomer, "jo@example.com", "correct-password")
	repo := &stubUserRepo{byEmail: map[string]*models.User{"jo@example.com": user}}
	svc := newAuthService(t, repo, &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "jo@example.com",
		Password: "wrong-password",
	})
	assertUnauthorized(t, err)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newAuthService(t, &stubUserRepo{byEmail: map[string]*models.User{}}, &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assertUnauthorized(t, err)
}

func TestAdminLogin_RejectsCustomers(t *testing.T) {
	user := seedUser(t, enums.UserRoleCustomer, "jo@example.com", "hunter22hunter")
	repo := &stubUserRepo{byEmail: map[string]*models.User{"jo@example.com": user}}
	svc := newAuthService(t, repo, &stubSessionManager{})

	_, err := svc.AdminLogin(context.Background(), LoginRequest{
		Email:    "jo@example.com",
		Password: "hunter22hunter",
	})
	assertUnauthorized(t, err)
}

func TestAdminLogin_Success(t *testing.T) {
	user := seedUser(t, enums.UserRoleAdmin, "admin@example.com", "hunter22hunter")
	repo := &stubUserRepo{byEmail: map[string]*models.User{"admin@example.com": user}}
	svc := newAuthService(t, repo, &stubSessionManager{})

	resp, err := svc.AdminLogin(context.Background(), LoginRequest{
		Email:    "admin@example.com",
		Password: "hunter22hunter",
	})
	if err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin role, got %s", claims.Role)
	}
}

func TestRefresh_RotatesTokens(t *testing.T) {
	user := seedUser(t, enums.UserRoleCustomer, "jo@example.com", "hunter22hunter")
	repo := &stubUserRepo{byEmail: map[string]*models.User{"jo@example.com": user}}
	sessions := &stubSessionManager{}
	svc := newAuthService(t, repo, sessions)

	login, err := svc.Login(context.Background(), LoginRequest{
		Email:    "jo@example.com",
		Password: "hunter22hunter",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if resp.RefreshToken != "new-refresh-token" {
		t.Fatalf("refresh token not rotated: %q", resp.RefreshToken)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("rotated token lost user identity")
	}
	if claims.ID != "new-access-id" {
		t.Fatalf("rotated token should carry the new access id, got %q", claims.ID)
	}
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error")
	}
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
