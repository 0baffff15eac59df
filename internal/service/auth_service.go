package service

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/vaxpoint/bookings/internal/domain"
	"github.com/vaxpoint/bookings/internal/repo/postgres"
	"github.com/vaxpoint/bookings/pkg/auth"
	"github.com/vaxpoint/bookings/pkg/config"
	"github.com/vaxpoint/bookings/pkg/events"
	"github.com/vaxpoint/bookings/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	GetUser(ctx context.Context, phone int64) (*domain.User, error)
	ListUsers(ctx context.Context, caller *domain.User, filter domain.UserFilter, limit, offset int) ([]domain.User, error)
}

type authService struct {
	userRepo postgres.UserRepository
	eventBus events.Publisher
	config   *config.Config
}

func NewAuthService(userRepo postgres.UserRepository, eventBus events.Publisher, cfg *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		eventBus: eventBus,
		config:   cfg,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	status, _ := domain.ParseVaccinationStatus(req.VaccinationStatus)

	user, err := s.userRepo.Create(ctx, &domain.User{
		Name:              req.Name,
		Phone:             req.PhoneNumber(),
		Age:               req.Age,
		Pincode:           req.PincodeNumber(),
		Aadhaar:           req.AadhaarNumber(),
		Email:             req.Email,
		PasswordHash:      passwordHash,
		VaccinationStatus: status,
		Role:              domain.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	event := events.UserRegisteredEvent{
		Phone:        user.Phone,
		Name:         user.Name,
		RegisteredAt: user.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.UserRegistered, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish user registered event", "error", err, "phone", user.Phone)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	user, err := s.userRepo.FindByPhone(ctx, req.PhoneNumber())
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, err := auth.NewAccessToken(
		user.Phone,
		user.Role,
		s.config.Auth.JWTSecret,
		s.config.Auth.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.Auth.AccessTokenTTL.Seconds()),
		User:        user.ToUserInfo(),
	}, nil
}

func (s *authService) GetUser(ctx context.Context, phone int64) (*domain.User, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, caller *domain.User, filter domain.UserFilter, limit, offset int) ([]domain.User, error) {
	if caller == nil || !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.userRepo.List(ctx, filter, limit, offset)
}
