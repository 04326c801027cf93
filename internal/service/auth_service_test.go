package service

import (
	"errors"
	"testing"
	"time"

	"coursegate_backend/internal/config"
	"coursegate_backend/internal/model"
	"coursegate_backend/internal/util"
)

func newAuthService(env *testEnv) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-that-is-long-enough-for-tests"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(env.users, cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := newAuthService(env)

	user := &model.User{Name: "alice", Email: "alice@example.com", Password: "secret-password"}
	if err := svc.Register(user); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != model.Member {
		t.Fatalf("default role = %s, want member", user.Role)
	}
	if user.Password == "secret-password" {
		t.Fatal("password stored in plain text")
	}

	token, err := svc.Login("alice@example.com", "secret-password")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := util.ParseJWT(token, "test-secret-that-is-long-enough-for-tests")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != model.Member {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := newAuthService(env)

	first := &model.User{Name: "bob", Email: "bob@example.com", Password: "secret-password"}
	if err := svc.Register(first); err != nil {
		t.Fatalf("Register: %v", err)
	}

	dup := &model.User{Name: "bobby", Email: "bob@example.com", Password: "other-password"}
	if err := svc.Register(dup); !errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("err = %v, want ErrEmailRegistered", err)
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := newAuthService(env)

	user := &model.User{Name: "carol", Email: "carol@example.com", Password: "secret-password"}
	if err := svc.Register(user); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login("carol@example.com", "wrong"); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.Login("nobody@example.com", "secret-password"); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("unknown email err = %v", err)
	}

	user.Disabled = true
	if err := env.users.Update(user); err != nil {
		t.Fatalf("disable user: %v", err)
	}
	if _, err := svc.Login("carol@example.com", "secret-password"); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("disabled account err = %v", err)
	}
}
