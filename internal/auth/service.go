// Package auth implements account registration, login and OTP based
// password reset.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	// bcrypt only accepts passwords up to 72 bytes
	maxPasswordLength = 72
	otpDigits         = 6
	defaultCost       = 10
	// maxOTPAttempts bounds reset attempts per email within one OTP lifetime
	maxOTPAttempts = 5
)

var errInvalidOTP = fmt.Errorf("%w: invalid or expired OTP", models.ErrInvalidInput)

// RateLimiter counts hits per key over a fixed window
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

// OTPSender delivers password reset codes
type OTPSender interface {
	SendPasswordResetOTP(ctx context.Context, to, name, otp string, ttl time.Duration) error
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	Generate(actor models.Actor) (string, error)
}

// Config holds OTP settings
type Config struct {
	OTPTTL         time.Duration
	OTPMaxRequests int64
	OTPWindow      time.Duration
}

// RegisterInput is the data needed to create an account
type RegisterInput struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role"`
}

// LoginResult is returned on successful login
type LoginResult struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

// Service handles identity operations
type Service struct {
	users   models.UserStore
	tokens  TokenIssuer
	limiter RateLimiter
	mailer  OTPSender
	cfg     Config
	logger  *logging.Logger
	cost    int
	now     func() time.Time
}

// NewService creates a new identity service
func NewService(users models.UserStore, tokens TokenIssuer, limiter RateLimiter, mailer OTPSender, cfg Config, logger *logging.Logger) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		limiter: limiter,
		mailer:  mailer,
		cfg:     cfg,
		logger:  logger,
		cost:    defaultCost,
		now:     time.Now,
	}
}

// Register creates a student or instructor account
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", models.ErrInvalidInput)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = models.RoleStudent
	}
	if role != models.RoleStudent && role != models.RoleInstructor {
		return nil, fmt.Errorf("%w: role %q cannot be self-assigned", models.ErrInvalidInput, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		metrics.RecordAuthEvent("register", "failure")
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", models.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	metrics.RecordAuthEvent("register", "success")
	s.logger.WithUserID(user.ID).WithField("role", role).Info("User registered")

	return user, nil
}

// Login checks credentials and issues an access token
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			metrics.RecordAuthEvent("login", "failure")
			return nil, fmt.Errorf("%w: invalid credentials", models.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.RecordAuthEvent("login", "failure")
		return nil, fmt.Errorf("%w: invalid credentials", models.ErrUnauthenticated)
	}

	token, err := s.tokens.Generate(models.Actor{ID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	metrics.RecordAuthEvent("login", "success")

	return &LoginResult{
		Token: token,
		User:  models.UserSummary{ID: user.ID, Name: user.Name, Role: user.Role},
	}, nil
}

// ForgotPassword emails a one-time reset code to the account owner
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: no account for this email", models.ErrNotFound)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	allowed, err := s.limiter.CheckRateLimit(ctx, "otp:"+email, s.cfg.OTPMaxRequests, s.cfg.OTPWindow)
	if err != nil {
		return fmt.Errorf("failed to check OTP rate limit: %w", err)
	}
	if !allowed {
		metrics.RecordAuthEvent("forgot_password", "rate_limited")
		return fmt.Errorf("%w: too many reset requests, try again later", models.ErrRateLimited)
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(otp), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash OTP: %w", err)
	}

	expiresAt := s.now().UTC().Add(s.cfg.OTPTTL)
	if err := s.users.SetResetOTP(ctx, user.ID, string(hash), expiresAt); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	if err := s.mailer.SendPasswordResetOTP(ctx, user.Email, user.Name, otp, s.cfg.OTPTTL); err != nil {
		metrics.RecordAuthEvent("forgot_password", "failure")
		return fmt.Errorf("failed to send OTP: %w", err)
	}

	metrics.RecordAuthEvent("forgot_password", "success")
	s.logger.WithUserID(user.ID).Info("Password reset OTP sent")

	return nil
}

// ResetPassword replaces the password when otp matches the stored code
func (s *Service) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	email = normalizeEmail(email)

	allowed, err := s.limiter.CheckRateLimit(ctx, "otp-verify:"+email, maxOTPAttempts, s.cfg.OTPTTL)
	if err != nil {
		return fmt.Errorf("failed to check OTP attempt limit: %w", err)
	}
	if !allowed {
		metrics.RecordAuthEvent("reset_password", "rate_limited")
		return fmt.Errorf("%w: too many reset attempts, try again later", models.ErrRateLimited)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			metrics.RecordAuthEvent("reset_password", "failure")
			return errInvalidOTP
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.ResetOTPHash == nil || user.ResetOTPExpiresAt == nil || s.now().After(*user.ResetOTPExpiresAt) {
		metrics.RecordAuthEvent("reset_password", "failure")
		return errInvalidOTP
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.ResetOTPHash), []byte(otp)); err != nil {
		metrics.RecordAuthEvent("reset_password", "failure")
		return errInvalidOTP
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.ResetPassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	metrics.RecordAuthEvent("reset_password", "success")
	s.logger.WithUserID(user.ID).Info("Password reset")

	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", models.ErrInvalidInput, minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d bytes", models.ErrInvalidInput, maxPasswordLength)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
