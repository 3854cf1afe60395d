package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/adapters/persistence/repositories"
	"chamanexus/internal/core/domain"
	"chamanexus/internal/pkg/sanitize"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// User service errors
var (
	ErrCannotDeleteSelf      = errors.New("cannot delete your own account")
	ErrCannotChangeOwnAccess = errors.New("cannot change your own access flags")
)

// UserService handles user management business logic
type UserService struct {
	userRepo   repositories.UserRepository
	memberRepo repositories.MemberRepository
	log        *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	memberRepo repositories.MemberRepository,
	log *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		memberRepo: memberRepo,
		log:        log,
	}
}

// ListUsersInput represents list users input
type ListUsersInput struct {
	Page  int
	Limit int
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users      []*models.UserResponse `json:"users"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// UpdateUserByAdminInput represents update user input (for staff)
type UpdateUserByAdminInput struct {
	IsActive *bool `json:"is_active"`
	IsStaff  *bool `json:"is_staff"`
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	PhoneNumber *string `json:"phone_number"`
}

// ListUsers lists all users with pagination
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit

	users, total, err := s.userRepo.List(ctx, offset, input.Limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	userResponses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		resp, err := s.toResponse(ctx, user)
		if err != nil {
			return nil, err
		}
		userResponses[i] = resp
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListUsersOutput{
		Users:      userResponses,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, user)
}

// UpdateUserByAdmin updates account flags of another user
func (s *UserService) UpdateUserByAdmin(ctx context.Context, id, adminID string, input *UpdateUserByAdminInput) (*models.UserResponse, error) {
	if id == adminID {
		return nil, ErrCannotChangeOwnAccess
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.IsStaff != nil {
		user.IsStaff = *input.IsStaff
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.log.Error("failed to update user", zap.String("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.log.Info("user updated by admin",
		zap.String("user_id", id),
		zap.String("admin_id", adminID),
		zap.Bool("is_active", user.IsActive),
		zap.Bool("is_staff", user.IsStaff),
	)
	return s.toResponse(ctx, user)
}

// DeleteUser soft deletes a user and unlinks its members
func (s *UserService) DeleteUser(ctx context.Context, id, adminID string) error {
	if id == adminID {
		return ErrCannotDeleteSelf
	}

	if err := s.userRepo.DeleteAndDetachMembers(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.log.Error("failed to delete user", zap.String("user_id", id), zap.Error(err))
		return fmt.Errorf("delete user: %w", err)
	}

	s.log.Info("user deleted", zap.String("user_id", id), zap.String("admin_id", adminID))
	return nil
}

// GetProfile gets the current user's profile
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.UserResponse, error) {
	return s.GetUserByID(ctx, userID)
}

// UpdateProfile updates the current user's names and phone number.
// An empty phone number clears it.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = sanitize.Text(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = sanitize.Text(*input.LastName)
	}
	if input.PhoneNumber != nil {
		if strings.TrimSpace(*input.PhoneNumber) == "" {
			user.PhoneNumber = nil
		} else {
			phone, err := domain.NormalizePhoneNumber(*input.PhoneNumber)
			if err != nil {
				return nil, err
			}
			user.PhoneNumber = &phone
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.log.Error("failed to update profile", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return s.toResponse(ctx, user)
}

func (s *UserService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// toResponse adds the linked member to the user response
func (s *UserService) toResponse(ctx context.Context, user *models.User) (*models.UserResponse, error) {
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
