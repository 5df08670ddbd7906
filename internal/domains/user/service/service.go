package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"elysian-backend/internal/domains/user/model"
	"elysian-backend/internal/domains/user/repository"
	"elysian-backend/pkg/jwt"
	"elysian-backend/pkg/logger"
)

// OrderCounter reports how many orders a customer has placed. Satisfied by
// the order service; used to decide new-customer status.
type OrderCounter interface {
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
}

type Service interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.AuthResponse, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error)

	// CustomerProfile satisfies the discount service's profile dependency.
	CustomerProfile(ctx context.Context, customerID uuid.UUID) (tier string, isNewCustomer bool, err error)
}

type service struct {
	repo   repository.Repository
	orders OrderCounter
	jwt    *jwt.Manager
}

func NewService(repo repository.Repository, orders OrderCounter, jwtManager *jwt.Manager) Service {
	return &service{
		repo:   repo,
		orders: orders,
		jwt:    jwtManager,
	}
}

func (s *service) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         string(model.RoleCustomer),
		Tier:         string(model.TierBronze),
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("user registered", map[string]interface{}{"user_id": user.ID.String()})
	return s.issueTokens(user)
}

func (s *service) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// Same response for unknown email and wrong password.
		return nil, model.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, model.ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Security("failed login attempt", map[string]interface{}{
			"user_id": user.ID.String(),
		})
		return nil, model.ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*model.AuthResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, model.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, model.ErrInvalidToken
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, model.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, model.ErrAccountDisabled
	}

	return s.issueTokens(user)
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

func (s *service) CustomerProfile(ctx context.Context, customerID uuid.UUID) (string, bool, error) {
	user, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return "", false, err
	}

	count, err := s.orders.CountByCustomer(ctx, customerID)
	if err != nil {
		return "", false, err
	}
	return user.Tier, count == 0, nil
}

func (s *service) issueTokens(user *model.User) (*model.AuthResponse, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwt.GenerateRefreshToken(user.ID.String())
	if err != nil {
		return nil, err
	}

	return &model.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
