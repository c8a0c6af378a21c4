package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stockdash/stockdash-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	failGet error
}

func newMemUsers() *memUsers { return &memUsers{byEmail: map[string]*models.User{}} }

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.byEmail[u.Email] = &cp
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	if u, ok := m.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func newTestService() (*Service, *memUsers) {
	users := newMemUsers()
	return NewService(users, bcrypt.MinCost), users
}

func TestSignupAndLogin(t *testing.T) {
	svc, users := newTestService()
	ctx := context.Background()

	u, err := svc.Signup(ctx, " Ada ", " Ada@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if u.ID == "" || u.Email != "ada@example.com" || u.Name != "Ada" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if stored := users.byEmail["ada@example.com"]; stored.PasswordHash == "correct horse" {
		t.Fatal("password stored in clear text")
	}

	got, err := svc.Login(ctx, "ADA@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("logged in as %s, want %s", got.ID, u.ID)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever1")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "Bob", "bob@example.com", "password123"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Login(ctx, "bob@example.com", "password124")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_StoreError(t *testing.T) {
	svc, users := newTestService()
	users.failGet = errors.New("db down")
	_, err := svc.Login(context.Background(), "a@b.co", "password123")
	if err == nil || errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestSignup_Duplicate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "Cy", "cy@example.com", "password123"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Signup(ctx, "Cy2", "CY@example.com", "password456")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignup_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}

	cases := []struct{ name, email, password string }{
		{"", "a@b.co", "password123"},
		{"A", "not-an-email", "password123"},
		{"A", "a@b", "password123"},
		{"A", "a@b.co", "short"},
		{"A", "a@b.co", string(long)},
	}
	for _, tc := range cases {
		_, err := svc.Signup(ctx, tc.name, tc.email, tc.password)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Signup(%q, %q, len %d): expected ErrInvalidInput, got %v", tc.name, tc.email, len(tc.password), err)
		}
	}
}

func TestNewService_CostBounds(t *testing.T) {
	if s := NewService(newMemUsers(), 0); s.cost != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want default", s.cost)
	}
	if s := NewService(newMemUsers(), 99); s.cost != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want default", s.cost)
	}
}
