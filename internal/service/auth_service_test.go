package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sunilprojects/smart-campus-resource-management/config"
	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/internal/notification"
	"github.com/sunilprojects/smart-campus-resource-management/pkg/jwt"
)

func setupTestAuthService() (AuthService, *testRepos, *memoryTokenStore, *recordingNotifier, *jwt.Manager) {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
		},
	}

	r := newTestRepos()
	tokens := newMemoryTokenStore()
	n := &recordingNotifier{}
	jwtMgr := jwt.NewManager(&cfg.Auth)

	svc := NewAuthService(cfg, r.repo, jwtMgr, tokens, newTestRuntime(r, n), zap.NewNop())
	return svc, r, tokens, n, jwtMgr
}

func createTestUser(r *testRepos, email, password, status string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		UserID:       "user-" + email,
		Name:         "测试用户",
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleStudent,
		Status:       status,
	}
	_ = r.users.Create(context.Background(), user)
	return user
}

// ── 注册测试 ──

func TestRegister_Success(t *testing.T) {
	svc, r, _, n, _ := setupTestAuthService()

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Asha",
		Email:    "Asha@Campus.Test",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if resp.Email != "asha@campus.test" {
		t.Errorf("邮箱应统一为小写，实际=%s", resp.Email)
	}
	if resp.Role != model.RoleStudent || resp.Status != model.UserStatusActive {
		t.Errorf("默认角色/状态不正确: role=%s status=%s", resp.Role, resp.Status)
	}

	stored, _ := r.users.GetByEmail(context.Background(), "asha@campus.test")
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")) != nil {
		t.Error("密码应以 bcrypt 哈希保存")
	}

	kinds := n.kinds()
	if len(kinds) != 1 || kinds[0] != notification.KindWelcome {
		t.Errorf("期望 1 条 welcome 通知，实际 %v", kinds)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, r, _, _, _ := setupTestAuthService()
	createTestUser(r, "dup@campus.test", "password123", model.UserStatusActive)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Dup",
		Email:    "dup@campus.test",
		Password: "password123",
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

// ── 登录测试 ──

func TestLogin_Success(t *testing.T) {
	svc, r, _, _, _ := setupTestAuthService()
	createTestUser(r, "s1@campus.test", "password123", model.UserStatusActive)

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "s1@campus.test",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("Token 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}
	if result.User.Email != "s1@campus.test" {
		t.Errorf("期望 Email=s1@campus.test，实际=%s", result.User.Email)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, r, _, _, _ := setupTestAuthService()
	createTestUser(r, "s1@campus.test", "password123", model.UserStatusActive)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "s1@campus.test", Password: "wrong_password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	svc, _, _, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "nobody@campus.test", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_Inactive(t *testing.T) {
	svc, r, _, _, _ := setupTestAuthService()
	createTestUser(r, "off@campus.test", "password123", model.UserStatusInactive)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "off@campus.test", Password: "password123"})
	if !errors.Is(err, ErrUserInactive) {
		t.Errorf("期望 ErrUserInactive，实际: %v", err)
	}
}

// ── Token 刷新与注销 ──

func TestRefreshToken_Rotation(t *testing.T) {
	svc, r, tokens, _, _ := setupTestAuthService()
	createTestUser(r, "s1@campus.test", "password123", model.UserStatusActive)
	ctx := context.Background()

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "s1@campus.test", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}

	refreshed, err := svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("RefreshToken 应成功: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("新 AccessToken 不应为空")
	}
	if len(tokens.revoked) != 1 {
		t.Errorf("旧 RefreshToken 应被作废，黑名单数=%d", len(tokens.revoked))
	}

	if _, err := svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("重复使用旧 RefreshToken 应失败，实际: %v", err)
	}
}

func TestRefreshToken_RejectsAccessToken(t *testing.T) {
	svc, r, _, _, _ := setupTestAuthService()
	createTestUser(r, "s1@campus.test", "password123", model.UserStatusActive)

	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "s1@campus.test", Password: "password123"})
	_, err := svc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.AccessToken})
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("AccessToken 不能用于刷新，实际: %v", err)
	}
}

func TestLogout_BlacklistsToken(t *testing.T) {
	svc, r, tokens, _, jwtMgr := setupTestAuthService()
	createTestUser(r, "s1@campus.test", "password123", model.UserStatusActive)
	ctx := context.Background()

	login, _ := svc.Login(ctx, &dto.LoginRequest{Email: "s1@campus.test", Password: "password123"})
	claims, err := jwtMgr.ParseToken(login.AccessToken)
	if err != nil {
		t.Fatalf("解析 Token 失败: %v", err)
	}

	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if revoked, _ := tokens.IsBlacklisted(ctx, claims.ID); !revoked {
		t.Error("注销后 Token 应在黑名单中")
	}
	if ttl := tokens.revoked[claims.ID]; ttl <= 0 || ttl > 15*time.Minute {
		t.Errorf("黑名单 TTL 应为剩余有效期，实际 %s", ttl)
	}
}

func TestChangePassword(t *testing.T) {
	svc, r, _, _, _ := setupTestAuthService()
	u := createTestUser(r, "s1@campus.test", "password123", model.UserStatusActive)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, u.UserID, &dto.ChangePasswordRequest{OldPassword: "bad", NewPassword: "newpassword1"}); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("期望 ErrWrongPassword，实际: %v", err)
	}
	if err := svc.ChangePassword(ctx, u.UserID, &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"}); err != nil {
		t.Fatalf("修改密码应成功: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "s1@campus.test", Password: "newpassword1"}); err != nil {
		t.Errorf("新密码应可登录: %v", err)
	}
}
