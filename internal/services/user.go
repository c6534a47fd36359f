package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	VerificationTokenTTL  = 24 * time.Hour
	PasswordResetTokenTTL = time.Hour
)

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, req *models.ChangePasswordRequest) error
	VerifyEmail(ctx context.Context, req *models.VerifyEmailRequest) error
	ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error
	CreateAdmin(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
}

type userService struct {
	repo          repository.UserRepository
	rateLimitRepo repository.RateLimitRepository
	notifier      NotificationService
	jwtKey        []byte
	jwtTTL        time.Duration
}

func NewUserService(repo repository.UserRepository, rateLimitRepo repository.RateLimitRepository, notifier NotificationService, jwtKey []byte, jwtTTL time.Duration) UserService {
	return &userService{
		repo:          repo,
		rateLimitRepo: rateLimitRepo,
		notifier:      notifier,
		jwtKey:        jwtKey,
		jwtTTL:        jwtTTL,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) ensureEmailFree(ctx context.Context, email string, owner uuid.UUID) error {
	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return errors.DatabaseError("Failed to check email").WithError(err)
	}

	if existing.ID != owner {
		return errors.DuplicateEntryError("Email already registered")
	}

	return nil
}

func (s *userService) newUser(ctx context.Context, req *models.RegisterRequest, role models.Role) (*models.User, error) {

	email := normalizeEmail(req.Email)

	if err := s.ensureEmailFree(ctx, email, uuid.Nil); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.InternalError("Failed to secure password").WithError(err)
	}

	return &models.User{
		ID:       uuid.New(),
		Name:     utils.SanitizeText(req.Name),
		Email:    email,
		Password: string(hashedPassword),
		Role:     role,
	}, nil
}

func (s *userService) create(ctx context.Context, user *models.User) error {
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if isDuplicate(err) {
			return errors.DuplicateEntryError("Email already registered").WithError(err)
		}
		return errors.DatabaseError("Failed to create user").WithError(err)
	}

	return nil
}

// Register creates an unverified customer and emails a verification link.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {

	logger := middleware.LoggerFromContext(ctx)

	user, err := s.newUser(ctx, req, models.RoleUser)
	if err != nil {
		return nil, err
	}

	token, err := randomHex(32)
	if err != nil {
		return nil, errors.InternalError("Failed to generate verification token").WithError(err)
	}

	expiry := time.Now().Add(VerificationTokenTTL)
	user.Token = token
	user.TokenExpiry = &expiry

	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	// the account exists either way; a lost email can be re-requested
	if err := s.notifier.SendVerificationEmail(ctx, user, token); err != nil {
		logger.Warn("Failed to send verification email", slog.String("userId", user.ID.String()), slog.Any("error", err))
	}

	return user, nil
}

func (s *userService) CreateAdmin(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {

	user, err := s.newUser(ctx, req, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	user.IsVerified = true

	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {

	logger := middleware.LoggerFromContext(ctx)
	email := normalizeEmail(req.Email)

	allowed, remaining, retryAfter, err := s.rateLimitRepo.CheckLoginRateLimit(ctx, email)
	if err != nil {
		return nil, errors.ThirdPartyError("Rate limit check failed").WithError(err)
	}

	if !allowed {
		return &models.LoginResponse{
			Success:    false,
			Message:    "Too many login attempts. Please try again later.",
			RetryAfter: retryAfter,
		}, nil
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil && !isNotFound(err) {
		return nil, errors.DatabaseError("Failed to fetch user").WithError(err)
	}

	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return &models.LoginResponse{
			Success:        false,
			Message:        "Invalid email or password",
			RemainingTries: remaining,
		}, nil
	}

	now := time.Now()
	claims := &models.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtKey)
	if err != nil {
		return nil, errors.InternalError("Failed to generate authentication token").WithError(err)
	}

	if err := s.rateLimitRepo.ResetLoginAttempts(ctx, email); err != nil {
		logger.Warn("Failed to reset login attempts", slog.String("email", email), slog.Any("error", err))
	}

	return &models.LoginResponse{
		Success:   true,
		Token:     tokenString,
		ExpiresIn: int(s.jwtTTL.Seconds()),
		User:      user,
	}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("User not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch user").WithError(err)
	}

	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	if email != user.Email {
		if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
			return nil, err
		}
	}

	user.Name = utils.SanitizeText(req.Name)
	user.Email = email

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, errors.DuplicateEntryError("Email already registered").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to update profile").WithError(err)
	}

	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, id uuid.UUID, req *models.ChangePasswordRequest) error {

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		return errors.BadRequestError("Current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.InternalError("Failed to secure password").WithError(err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return errors.DatabaseError("Failed to change password").WithError(err)
	}

	return nil
}

func (s *userService) VerifyEmail(ctx context.Context, req *models.VerifyEmailRequest) error {

	user, err := s.repo.GetUserByToken(ctx, normalizeEmail(req.Email), req.Token)
	if err != nil {
		if isNotFound(err) {
			return errors.BadRequestError("Invalid or expired verification link").WithError(err)
		}
		return errors.DatabaseError("Failed to verify email").WithError(err)
	}

	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		return errors.DatabaseError("Failed to verify email").WithError(err)
	}

	return nil
}

// ForgotPassword behaves the same whether or not the account exists.
func (s *userService) ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error {

	logger := middleware.LoggerFromContext(ctx)

	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return errors.DatabaseError("Failed to process request").WithError(err)
	}

	token, err := randomHex(32)
	if err != nil {
		return errors.InternalError("Failed to generate reset token").WithError(err)
	}

	if err := s.repo.SetToken(ctx, user.ID, token, time.Now().Add(PasswordResetTokenTTL)); err != nil {
		return errors.DatabaseError("Failed to process request").WithError(err)
	}

	if err := s.notifier.SendPasswordResetEmail(ctx, user, token); err != nil {
		logger.Error("Failed to send password reset email", slog.String("userId", user.ID.String()), slog.Any("error", err))
	}

	return nil
}

func (s *userService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {

	user, err := s.repo.GetUserByToken(ctx, normalizeEmail(req.Email), req.Token)
	if err != nil {
		if isNotFound(err) {
			return errors.BadRequestError("Invalid or expired reset link").WithError(err)
		}
		return errors.DatabaseError("Failed to reset password").WithError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.InternalError("Failed to secure password").WithError(err)
	}

	if err := s.repo.ResetPassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return errors.DatabaseError("Failed to reset password").WithError(err)
	}

	return nil
}
