package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MikeMC777/foodapp/internal/apperr"
	"github.com/MikeMC777/foodapp/internal/auth"
)

// stubRepo implements Repository in memory.
type stubRepo struct {
	byID map[string]*User
}

func newStubRepo() *stubRepo { return &stubRepo{byID: map[string]*User{}} }

func (s *stubRepo) Create(ctx context.Context, u *User) error {
	for _, v := range s.byID {
		if strings.EqualFold(v.Email, u.Email) {
			return ErrAlreadyExist
		}
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, v := range s.byID {
		if strings.EqualFold(v.Email, email) {
			cp := *v
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func newTestService() (*Service, *auth.Tokens) {
	tok := auth.NewTokens("test-secret", time.Hour)
	return NewService(newStubRepo(), tok), tok
}

func TestRegister_IssuesCustomerToken(t *testing.T) {
	t.Parallel()

	svc, tok := newTestService()
	out, err := svc.Register(context.Background(), RegisterRequest{Name: "Ana", Email: "Ana@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if out.User.Role != auth.RoleCustomer || out.User.Email != "ana@example.com" {
		t.Fatalf("user=%+v", out.User)
	}
	a, err := tok.Verify(out.Token)
	if err != nil || a.UserID != out.User.ID {
		t.Fatalf("token actor=%+v err=%v", a, err)
	}
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	cases := []RegisterRequest{
		{Email: "a@b.com", Password: "secret1"},
		{Name: "A", Email: "not-an-email", Password: "secret1"},
		{Name: "A", Email: "a@b.com", Password: "123"},
	}
	for _, in := range cases {
		if _, err := svc.Register(context.Background(), in); apperr.KindOf(err) != apperr.KindInvalidInput {
			t.Fatalf("in=%+v err=%v, want invalid input", in, err)
		}
	}
}

func TestRegister_Duplicate(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	in := RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"}
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(context.Background(), in); apperr.KindOf(err) != apperr.KindConflictOfState {
		t.Fatalf("err=%v, want conflict", err)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	if _, err := svc.Register(context.Background(), RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "wrong"}); apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Fatalf("wrong password err=%v", err)
	}
	if _, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "secret1"}); apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Fatalf("unknown email err=%v", err)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	reg, err := svc.Register(context.Background(), RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "pw-123456"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := svc.Get(context.Background(), reg.User.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Email != "ada@example.com" || u.Role != auth.RoleCustomer {
		t.Fatalf("user=%+v", u)
	}

	_, err = svc.Get(context.Background(), "missing")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("err=%v, want not_found", err)
	}
}
