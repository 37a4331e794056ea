package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/token"
)

type stubUserRepo struct {
	byEmail map[string]*domain.User
	nextID  int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: make(map[string]*domain.User)}
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if _, ok := r.byEmail[u.Email]; ok {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	clone := *u
	clone.ID = "u-" + strconv.Itoa(r.nextID)
	r.byEmail[clone.Email] = &clone
	out := clone
	return &out, nil
}

func newAuthFixture() (*AuthService, *stubUserRepo) {
	repo := newStubUserRepo()
	return NewAuthService(repo, "test-secret", time.Hour), repo
}

func TestRegister_HashesPassword(t *testing.T) {
	svc, repo := newAuthFixture()

	user, err := svc.Register(context.Background(), "agent@example.com", "hunter22", "Agent", domain.RoleAgent)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("no id assigned")
	}
	stored := repo.byEmail["agent@example.com"]
	if stored.PasswordHash == "hunter22" || stored.PasswordHash == "" {
		t.Fatalf("password stored without hashing")
	}
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	svc, _ := newAuthFixture()

	for _, role := range []domain.Role{domain.RoleAdmin, domain.Role("root"), domain.RoleAnonymous} {
		if _, err := svc.Register(context.Background(), "x@example.com", "pw", "X", role); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("role %q: want ErrInvalidCredentials, got %v", role, err)
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	if _, err := svc.Register(context.Background(), "dup@example.com", "pw", "A", domain.RoleUser); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "dup@example.com", "pw2", "B", domain.RoleUser); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("want ErrUserExists, got %v", err)
	}
}

// A login token must round-trip through the verifier with the claims the
// account was registered with.
func TestLogin_IssuesVerifiableToken(t *testing.T) {
	svc, _ := newAuthFixture()

	created, err := svc.Register(context.Background(), "agent@example.com", "hunter22", "Agent", domain.RoleAgent)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	raw, user, err := svc.Login(context.Background(), "agent@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("login returned wrong user: %s", user.ID)
	}

	claims, err := token.NewVerifier("test-secret").Verify(raw)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.SubjectID != created.ID {
		t.Fatalf("sub = %q, want %q", claims.SubjectID, created.ID)
	}
	if claims.Role != domain.RoleAgent {
		t.Fatalf("role = %q", claims.Role)
	}
	if claims.Email != "agent@example.com" {
		t.Fatalf("email = %q", claims.Email)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newAuthFixture()

	if _, err := svc.Register(context.Background(), "agent@example.com", "hunter22", "Agent", domain.RoleAgent); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "agent@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "pw"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}
