package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/adapters/persistence/repositories"
	"chamanexus/internal/config"
	"chamanexus/internal/core/domain"
	"chamanexus/internal/pkg/jwt"
	"chamanexus/internal/pkg/metrics"
	"chamanexus/internal/pkg/password"
	"chamanexus/internal/pkg/sanitize"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrWeakPassword       = errors.New("password must be at least 8 characters and not entirely numeric")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrOldPasswordWrong   = errors.New("current password is incorrect")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	memberRepo       repositories.MemberRepository
	cfg              *config.Config
	log              *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	memberRepo repositories.MemberRepository,
	cfg *config.Config,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		memberRepo:       memberRepo,
		cfg:              cfg,
		log:              log,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email       string  `json:"email" validate:"required,email,max=254"`
	Password    string  `json:"password" validate:"required,min=8,max=128"`
	FirstName   string  `json:"first_name" validate:"max=150"`
	LastName    string  `json:"last_name" validate:"max=150"`
	PhoneNumber *string `json:"phone_number"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// PasswordResetInput represents a password reset request
type PasswordResetInput struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmInput represents a password reset confirmation
type PasswordResetConfirmInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Register registers a new user
func (s *AuthService) Register(ctx context.Context, input *RegisterInput, now time.Time) (*AuthResponse, error) {
	email := normalizeEmail(input.Email)

	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}

	var phone *string
	if input.PhoneNumber != nil && strings.TrimSpace(*input.PhoneNumber) != "" {
		normalized, err := domain.NormalizePhoneNumber(*input.PhoneNumber)
		if err != nil {
			return nil, err
		}
		phone = &normalized
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:                 uuid.NewString(),
		Email:              email,
		FirstName:          sanitize.Text(input.FirstName),
		LastName:           sanitize.Text(input.LastName),
		PhoneNumber:        phone,
		Password:           hashedPassword,
		IsActive:           true,
		LastPasswordChange: &now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}
		s.log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("create user: %w", err)
	}

	resp, err := s.issue(ctx, user, now)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return resp, nil
}

// Login authenticates a user by email and password.
// Repeated failures lock the account for the configured period.
func (s *AuthService) Login(ctx context.Context, input *LoginInput, ip string, now time.Time) (*AuthResponse, error) {
	email := normalizeEmail(input.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.LoginFailures.Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if user.IsLocked(now) {
		metrics.LoginFailures.Inc()
		return nil, ErrAccountLocked
	}

	if !password.Verify(input.Password, user.Password) {
		metrics.LoginFailures.Inc()
		lockUntil := now.Add(time.Duration(s.cfg.Security.LockMinutes) * time.Minute)
		if err := s.userRepo.RecordFailedLogin(ctx, user.ID, s.cfg.Security.MaxLoginAttempts, lockUntil); err != nil {
			s.log.Error("failed to record failed login", zap.String("user_id", user.ID), zap.Error(err))
		}
		s.log.Warn("failed login attempt", zap.String("email", email), zap.String("ip", ip))
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if err := s.userRepo.RecordSuccessfulLogin(ctx, user.ID, ip, now); err != nil {
		s.log.Error("failed to record login", zap.String("user_id", user.ID), zap.Error(err))
		return nil, fmt.Errorf("record login: %w", err)
	}
	user.LastLogin = &now
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil

	resp, err := s.issue(ctx, user, now)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID), zap.String("ip", ip))
	return resp, nil
}

// RefreshToken rotates a refresh token and issues a new pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string, now time.Time) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load refresh token: %w", err)
	}

	if storedToken.IsRevoked() {
		return nil, ErrTokenRevoked
	}
	if storedToken.IsExpired(now) {
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// Token Rotation
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	resp, err := s.issue(ctx, user, now)
	if err != nil {
		return nil, err
	}

	s.log.Debug("token refreshed", zap.String("user_id", user.ID))
	return resp, nil
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	s.log.Info("all sessions revoked", zap.String("user_id", userID))
	return nil
}

// ChangePassword verifies the current password, stores the new one and ends
// every session.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, input *ChangePasswordInput, now time.Time) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}

	if err := s.setPassword(ctx, user, input.NewPassword, now); err != nil {
		return err
	}

	s.log.Info("password changed", zap.String("user_id", user.ID))
	return nil
}

// RequestPasswordReset issues a reset token for email. Unknown addresses
// return an empty token and no error.
func (s *AuthService) RequestPasswordReset(ctx context.Context, input *PasswordResetInput, now time.Time) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return "", nil
	}

	token := uuid.NewString()
	hash := password.HashToken(token)
	user.ResetTokenHash = &hash
	user.ResetSentAt = &now

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.log.Error("failed to store reset token", zap.String("user_id", user.ID), zap.Error(err))
		return "", fmt.Errorf("store reset token: %w", err)
	}

	s.log.Info("password reset requested", zap.String("user_id", user.ID))
	return token, nil
}

// ConfirmPasswordReset sets a new password using a reset token
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, input *PasswordResetConfirmInput, now time.Time) error {
	user, err := s.userRepo.GetByResetTokenHash(ctx, password.HashToken(strings.TrimSpace(input.Token)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("load user: %w", err)
	}

	window := time.Duration(s.cfg.Security.ResetTokenHours) * time.Hour
	if user.ResetSentAt == nil || now.Sub(*user.ResetSentAt) > window {
		return ErrInvalidResetToken
	}

	user.ResetTokenHash = nil
	user.ResetSentAt = nil
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil

	if err := s.setPassword(ctx, user, input.NewPassword, now); err != nil {
		return err
	}

	s.log.Info("password reset completed", zap.String("user_id", user.ID))
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// Me returns the user with its linked member, if any
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return s.withMember(ctx, user)
}

func (s *AuthService) withMember(ctx context.Context, user *models.User) (*models.UserResponse, error) {
	resp := user.ToResponse()
	member, err := s.memberRepo.GetByUserID(ctx, user.ID)
	switch {
	case err == nil:
		resp.MemberID = &member.ID
		resp.MemberRole = member.Role
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("load linked member: %w", err)
	}
	return resp, nil
}

func (s *AuthService) setPassword(ctx context.Context, user *models.User, newPassword string, now time.Time) error {
	if !password.ValidatePassword(newPassword) {
		return ErrWeakPassword
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.LastPasswordChange = &now

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.log.Error("failed to update password", zap.String("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// issue generates, stores and returns a token pair for user
func (s *AuthService) issue(ctx context.Context, user *models.User, now time.Time) (*AuthResponse, error) {
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken, now); err != nil {
		s.log.Error("failed to store refresh token", zap.String("user_id", user.ID), zap.Error(err))
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	userResponse, err := s.withMember(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         userResponse,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(user *models.User) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		jwt.AccessSubject{
			UserID:      user.ID,
			Email:       user.Email,
			IsStaff:     user.IsStaff,
			IsSuperuser: user.IsSuperuser,
		},
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	// Generate unique token ID
	tokenID := uuid.NewString()

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		tokenID,
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token digest in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, userID, refreshToken string, now time.Time) error {
	token := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(now, s.cfg.JWT.RefreshTokenDays),
	}

	return s.refreshTokenRepo.Create(ctx, token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
