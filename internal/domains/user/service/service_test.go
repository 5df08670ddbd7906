package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"elysian-backend/internal/domains/user/model"
	"elysian-backend/pkg/jwt"
)

type fakeUserRepository struct {
	byID    map[uuid.UUID]*model.User
	byEmail map[string]*model.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{
		byID:    make(map[uuid.UUID]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (f *fakeUserRepository) Create(ctx context.Context, u *model.User) error {
	if _, exists := f.byEmail[u.Email]; exists {
		return model.ErrDuplicateEmail
	}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepository) UpdateTier(ctx context.Context, id uuid.UUID, tier model.Tier) error {
	u, ok := f.byID[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.Tier = string(tier)
	return nil
}

type fakeOrderCounter struct {
	counts map[uuid.UUID]int64
}

func (f *fakeOrderCounter) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	return f.counts[customerID], nil
}

func testService(repo *fakeUserRepository, orders *fakeOrderCounter) Service {
	if orders == nil {
		orders = &fakeOrderCounter{counts: make(map[uuid.UUID]int64)}
	}
	return NewService(repo, orders, jwt.NewManager("test-secret", 15, 168))
}

func TestRegisterNormalizesEmail(t *testing.T) {
	repo := newFakeUserRepository()
	svc := testService(repo, nil)

	resp, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "  New.Customer@Example.COM ",
		Password: "correct horse",
		Name:     "New Customer",
	})

	assert.NoError(t, err)
	assert.Equal(t, "new.customer@example.com", resp.User.Email)
	assert.Equal(t, string(model.RoleCustomer), resp.User.Role)
	assert.Equal(t, string(model.TierBronze), resp.User.Tier)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	// The stored hash is never the raw password.
	stored := repo.byEmail["new.customer@example.com"]
	assert.NotEqual(t, "correct horse", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepository()
	svc := testService(repo, nil)

	req := model.RegisterRequest{Email: "taken@example.com", Password: "password123", Name: "First"}
	_, err := svc.Register(context.Background(), req)
	assert.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrDuplicateEmail)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepository()
	svc := testService(repo, nil)

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Email: "user@example.com", Password: "password123", Name: "User",
	})
	assert.NoError(t, err)

	_, err = svc.Login(context.Background(), model.LoginRequest{
		Email: "user@example.com", Password: "wrong",
	})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	// Unknown email yields the same error as a wrong password.
	_, err = svc.Login(context.Background(), model.LoginRequest{
		Email: "nobody@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestLoginDisabledAccount(t *testing.T) {
	repo := newFakeUserRepository()
	svc := testService(repo, nil)

	resp, err := svc.Register(context.Background(), model.RegisterRequest{
		Email: "user@example.com", Password: "password123", Name: "User",
	})
	assert.NoError(t, err)
	repo.byID[resp.User.ID].IsActive = false

	_, err = svc.Login(context.Background(), model.LoginRequest{
		Email: "user@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, model.ErrAccountDisabled)
}

func TestRefreshRoundTrip(t *testing.T) {
	repo := newFakeUserRepository()
	svc := testService(repo, nil)

	registered, err := svc.Register(context.Background(), model.RegisterRequest{
		Email: "user@example.com", Password: "password123", Name: "User",
	})
	assert.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), registered.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestCustomerProfileNewCustomer(t *testing.T) {
	repo := newFakeUserRepository()
	orders := &fakeOrderCounter{counts: make(map[uuid.UUID]int64)}
	svc := testService(repo, orders)

	resp, err := svc.Register(context.Background(), model.RegisterRequest{
		Email: "user@example.com", Password: "password123", Name: "User",
	})
	assert.NoError(t, err)

	tier, isNew, err := svc.CustomerProfile(context.Background(), resp.User.ID)
	assert.NoError(t, err)
	assert.Equal(t, string(model.TierBronze), tier)
	assert.True(t, isNew)

	orders.counts[resp.User.ID] = 3
	_, isNew, err = svc.CustomerProfile(context.Background(), resp.User.ID)
	assert.NoError(t, err)
	assert.False(t, isNew)
}
