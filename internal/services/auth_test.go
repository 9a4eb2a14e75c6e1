package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/matchweek-backend/internal/types"
)

func TestRegisterUserAssignsDefaultTenant(t *testing.T) {
	tenantID := uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	var created *types.User
	userRepo := &fakeUserRepo{
		CreateFn: func(_ context.Context, _ *gorm.DB, users []*types.User) ([]*types.User, error) {
			created = users[0]
			return users, nil
		},
	}
	as := NewAuthService(nil, testLogger(t), userRepo, nil, "secret", time.Hour, time.Hour, tenantID)

	user := &types.User{Email: "Anna@Example.com", Password: "longenough"}
	if err := as.RegisterUser(context.Background(), user); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if created == nil {
		t.Fatalf("user row never created")
	}
	if created.TenantID != tenantID {
		t.Fatalf("tenant_id = %s, want bootstrap tenant %s", created.TenantID, tenantID)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("user id not assigned")
	}
	if created.Email != "anna@example.com" {
		t.Fatalf("email not normalized: %q", created.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("longenough")); err != nil {
		t.Fatalf("stored password is not a bcrypt hash of the input: %v", err)
	}
}

func TestRegisterUserKeepsExplicitTenant(t *testing.T) {
	bootstrapID := uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	explicitID := uuid.MustParse("00000000-0000-0000-0000-0000000000bb")
	var created *types.User
	userRepo := &fakeUserRepo{
		CreateFn: func(_ context.Context, _ *gorm.DB, users []*types.User) ([]*types.User, error) {
			created = users[0]
			return users, nil
		},
	}
	as := NewAuthService(nil, testLogger(t), userRepo, nil, "secret", time.Hour, time.Hour, bootstrapID)

	user := &types.User{Email: "b@example.com", Password: "longenough", TenantID: explicitID}
	if err := as.RegisterUser(context.Background(), user); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if created.TenantID != explicitID {
		t.Fatalf("explicit tenant overwritten: %s", created.TenantID)
	}
}

func TestRegisterUserNoTenantConfigured(t *testing.T) {
	as := NewAuthService(nil, testLogger(t), &fakeUserRepo{}, nil, "secret", time.Hour, time.Hour, uuid.Nil)
	err := as.RegisterUser(context.Background(), &types.User{Email: "c@example.com", Password: "longenough"})
	if err == nil {
		t.Fatalf("expected error when no tenant is configured")
	}
}

func TestRegisterUserValidation(t *testing.T) {
	tenantID := uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	cases := []struct {
		name string
		user *types.User
		repo *fakeUserRepo
	}{
		{
			name: "missing email",
			user: &types.User{Email: "  ", Password: "longenough"},
			repo: &fakeUserRepo{},
		},
		{
			name: "short password",
			user: &types.User{Email: "d@example.com", Password: "short"},
			repo: &fakeUserRepo{},
		},
		{
			name: "duplicate email",
			user: &types.User{Email: "e@example.com", Password: "longenough"},
			repo: &fakeUserRepo{
				EmailExistsFn: func(context.Context, *gorm.DB, string) (bool, error) { return true, nil },
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			as := NewAuthService(nil, testLogger(t), tc.repo, nil, "secret", time.Hour, time.Hour, tenantID)
			if err := as.RegisterUser(context.Background(), tc.user); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
