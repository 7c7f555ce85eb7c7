package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/apierr"
	"github.com/yungbote/coursecraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

func newAuthService(t *testing.T) (services.AuthService, dbctx.Context) {
	t.Helper()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)
	users := repos.NewUserRepo(tx, log)
	svc := services.NewAuthService(tx, log, users, "test-secret", time.Hour)
	return svc, dbctx.Context{Ctx: context.Background()}
}

func TestAuthRegisterLoginRoundTrip(t *testing.T) {
	svc, dbc := newAuthService(t)

	user, token, err := svc.Register(dbc, "Pat@Example.com", "hunter22", "Pat", "Smith")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "pat@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Password == "hunter22" {
		t.Fatalf("password stored in plaintext")
	}
	if token == "" {
		t.Fatalf("register must issue a token")
	}

	_, loginToken, err := svc.Login(dbc, "pat@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	ctx, err := svc.SetContextFromToken(context.Background(), loginToken)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if ctxutil.RequestUserID(ctx) != user.ID {
		t.Fatalf("token did not resolve to the registered user")
	}
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, dbc := newAuthService(t)
	if _, _, err := svc.Register(dbc, "wrongpw@example.com", "correct", "A", "B"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, _, err := svc.Login(dbc, "wrongpw@example.com", "incorrect")
	if apierr.StatusOf(err) != 401 {
		t.Fatalf("status = %d, want 401", apierr.StatusOf(err))
	}
	// Unknown accounts get the same answer as bad passwords.
	_, _, err = svc.Login(dbc, "nobody@example.com", "whatever")
	if apierr.StatusOf(err) != 401 {
		t.Fatalf("unknown account status = %d, want 401", apierr.StatusOf(err))
	}
}

func TestAuthDuplicateEmail(t *testing.T) {
	svc, dbc := newAuthService(t)
	if _, _, err := svc.Register(dbc, "dupe@example.com", "pw1", "A", "B"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, _, err := svc.Register(dbc, "dupe@example.com", "pw2", "C", "D")
	if apierr.StatusOf(err) != 409 {
		t.Fatalf("status = %d, want 409", apierr.StatusOf(err))
	}
}

func TestAuthRejectsTamperedToken(t *testing.T) {
	svc, dbc := newAuthService(t)
	_, token, err := svc.Register(dbc, "tamper@example.com", "pw", "A", "B")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.SetContextFromToken(context.Background(), token+"x"); err == nil {
		t.Fatalf("tampered token must fail verification")
	}
	if _, err := svc.SetContextFromToken(context.Background(), "not-a-token"); err == nil {
		t.Fatalf("garbage token must fail verification")
	}
}
