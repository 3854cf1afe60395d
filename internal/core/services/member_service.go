package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/adapters/persistence/repositories"
	"chamanexus/internal/core/domain"
	"chamanexus/internal/pkg/pagination"
	"chamanexus/internal/pkg/sanitize"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MemberService manages the member registry
type MemberService struct {
	memberRepo repositories.MemberRepository
	userRepo   repositories.UserRepository
	txRepo     repositories.TransactionRepository
	balances   *BalanceService
	log        *zap.Logger
}

// NewMemberService creates a new member service
func NewMemberService(
	memberRepo repositories.MemberRepository,
	userRepo repositories.UserRepository,
	txRepo repositories.TransactionRepository,
	balances *BalanceService,
	log *zap.Logger,
) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		userRepo:   userRepo,
		txRepo:     txRepo,
		balances:   balances,
		log:        log,
	}
}

// CreateMemberInput represents create member input
type CreateMemberInput struct {
	Name        string     `json:"name" validate:"required,max=100"`
	PhoneNumber string     `json:"phone_number" validate:"required"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	DateJoined  *time.Time `json:"date_joined"`
	UserID      *string    `json:"user_id"`
}

// UpdateMemberInput represents update member input
type UpdateMemberInput struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phone_number"`
	Role        *string `json:"role"`
	Status      *string `json:"status"`
}

// LinkUserInput links or unlinks a user account. A nil or empty user id unlinks.
type LinkUserInput struct {
	UserID *string `json:"user_id"`
}

// ListMembersInput represents list members input
type ListMembersInput struct {
	Page   int
	Limit  int
	Status string
	Role   string
	Search string
}

// ListMembersOutput represents list members output
type ListMembersOutput struct {
	Members    []*models.MemberResponse `json:"members"`
	Total      int64                    `json:"total"`
	Page       int                      `json:"page"`
	Limit      int                      `json:"limit"`
	TotalPages int                      `json:"total_pages"`
}

// StatementOutput is a member's verified history with net balance
type StatementOutput struct {
	Member       *models.MemberResponse        `json:"member"`
	Balance      string                        `json:"balance"`
	Transactions []*models.TransactionResponse `json:"transactions"`
	Meta         *pagination.Meta              `json:"meta"`
}

// Create registers a new member
func (s *MemberService) Create(ctx context.Context, input *CreateMemberInput, actor domain.Actor, now time.Time) (*models.Member, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	name, err := memberName(input.Name)
	if err != nil {
		return nil, err
	}
	phone, err := domain.NormalizePhoneNumber(input.PhoneNumber)
	if err != nil {
		return nil, err
	}
	role, err := memberRole(input.Role)
	if err != nil {
		return nil, err
	}
	status, err := memberStatus(input.Status)
	if err != nil {
		return nil, err
	}

	member := &models.Member{
		ID:          uuid.NewString(),
		Name:        name,
		PhoneNumber: phone,
		Role:        string(role),
		Status:      string(status),
		DateJoined:  now,
	}
	if input.DateJoined != nil {
		member.DateJoined = *input.DateJoined
	}

	if input.UserID != nil && strings.TrimSpace(*input.UserID) != "" {
		userID := strings.TrimSpace(*input.UserID)
		if err := s.ensureLinkable(ctx, userID, ""); err != nil {
			return nil, err
		}
		member.UserID = &userID
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		s.log.Error("failed to create member", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("create member: %w", err)
	}

	s.log.Info("member created", zap.String("member_id", member.ID), zap.String("role", member.Role))
	return member, nil
}

// Update edits a member. Status changes are the only way to retire a member.
func (s *MemberService) Update(ctx context.Context, id string, input *UpdateMemberInput, actor domain.Actor) (*models.Member, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := memberName(*input.Name)
		if err != nil {
			return nil, err
		}
		member.Name = name
	}
	if input.PhoneNumber != nil {
		phone, err := domain.NormalizePhoneNumber(*input.PhoneNumber)
		if err != nil {
			return nil, err
		}
		member.PhoneNumber = phone
	}
	if input.Role != nil {
		role, err := memberRole(*input.Role)
		if err != nil {
			return nil, err
		}
		member.Role = string(role)
	}
	if input.Status != nil {
		status, err := memberStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		member.Status = string(status)
	}

	if err := s.memberRepo.Update(ctx, member); err != nil {
		s.log.Error("failed to update member", zap.String("member_id", id), zap.Error(err))
		return nil, fmt.Errorf("update member: %w", err)
	}

	return member, nil
}

// LinkUser attaches a user account to the member, or detaches it
func (s *MemberService) LinkUser(ctx context.Context, id string, input *LinkUserInput, actor domain.Actor) (*models.Member, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.UserID == nil || strings.TrimSpace(*input.UserID) == "" {
		member.UserID = nil
	} else {
		userID := strings.TrimSpace(*input.UserID)
		if err := s.ensureLinkable(ctx, userID, member.ID); err != nil {
			return nil, err
		}
		member.UserID = &userID
	}

	if err := s.memberRepo.Update(ctx, member); err != nil {
		s.log.Error("failed to link member", zap.String("member_id", id), zap.Error(err))
		return nil, fmt.Errorf("link member: %w", err)
	}

	s.log.Info("member link changed", zap.String("member_id", id), zap.Stringp("user_id", member.UserID))
	return member, nil
}

// Get gets a member by ID
func (s *MemberService) Get(ctx context.Context, id string) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("load member: %w", err)
	}
	return member, nil
}

// List lists members with optional status, role and name/phone search
func (s *MemberService) List(ctx context.Context, input *ListMembersInput) (*ListMembersOutput, error) {
	params := pagination.New(input.Page, input.Limit)

	filter := repositories.MemberFilter{
		Status: strings.ToUpper(strings.TrimSpace(input.Status)),
		Role:   strings.ToUpper(strings.TrimSpace(input.Role)),
		Search: strings.TrimSpace(input.Search),
	}

	members, total, err := s.memberRepo.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	responses := make([]*models.MemberResponse, len(members))
	for i, m := range members {
		responses[i] = m.ToResponse()
	}

	meta := pagination.GetMeta(params, total)
	return &ListMembersOutput{
		Members:    responses,
		Total:      total,
		Page:       meta.Page,
		Limit:      meta.Limit,
		TotalPages: meta.TotalPages,
	}, nil
}

// Statement returns the member's verified transactions newest first and net balance
func (s *MemberService) Statement(ctx context.Context, id string, page, limit int) (*StatementOutput, error) {
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	balance, err := s.balances.memberBalance(ctx, member.ID)
	if err != nil {
		return nil, fmt.Errorf("member balance: %w", err)
	}

	params := pagination.New(page, limit)
	txs, total, err := s.txRepo.List(ctx, repositories.TransactionFilter{
		Status:   string(domain.TxStatusVerified),
		MemberID: member.ID,
	}, params.Offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("list statement: %w", err)
	}

	return &StatementOutput{
		Member:       member.ToResponse(),
		Balance:      money(balance),
		Transactions: models.TransactionsToResponse(txs),
		Meta:         pagination.GetMeta(params, total),
	}, nil
}

// PaymentStatus classifies the member for the current month
func (s *MemberService) PaymentStatus(ctx context.Context, id string, now time.Time) (*PaymentStatusOutput, error) {
	return s.balances.PaymentStatus(ctx, id, now)
}

// ensureLinkable checks the user exists and is not linked to another member
func (s *MemberService) ensureLinkable(ctx context.Context, userID, memberID string) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}

	linked, err := s.memberRepo.ExistsByUserID(ctx, userID, memberID)
	if err != nil {
		return fmt.Errorf("check user link: %w", err)
	}
	if linked {
		return domain.ErrUserAlreadyLinked
	}
	return nil
}

func memberName(raw string) (string, error) {
	name := sanitize.Text(raw)
	if name == "" {
		return "", domain.NewValidationError(domain.ErrInvalidInput, "name", raw, "name is required")
	}
	if len([]rune(name)) > 100 {
		return "", domain.NewValidationError(domain.ErrInvalidInput, "name", raw, "name must be at most 100 characters")
	}
	return name, nil
}

func memberRole(raw string) (domain.MemberRole, error) {
	role := domain.MemberRole(strings.ToUpper(strings.TrimSpace(raw)))
	if role == "" {
		return domain.MemberRoleMember, nil
	}
	if !role.IsValid() {
		return "", domain.NewValidationError(domain.ErrInvalidRole, "role", raw, "role must be one of TREASURER, ADMIN, MEMBER")
	}
	return role, nil
}

func memberStatus(raw string) (domain.MemberStatus, error) {
	status := domain.MemberStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if status == "" {
		return domain.MemberStatusActive, nil
	}
	if !status.IsValid() {
		return "", domain.NewValidationError(domain.ErrInvalidStatus, "status", raw, "status must be one of ACTIVE, INACTIVE, SUSPENDED")
	}
	return status, nil
}
