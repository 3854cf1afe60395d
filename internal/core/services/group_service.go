package services

import (
	"context"
	"errors"
	"fmt"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/adapters/persistence/repositories"
	"chamanexus/internal/core/domain"
	"chamanexus/internal/pkg/pagination"
	"chamanexus/internal/pkg/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GroupService manages chama group settings
type GroupService struct {
	groupRepo repositories.GroupRepository
	balances  *BalanceService
	log       *zap.Logger
}

// NewGroupService creates a new group service
func NewGroupService(groupRepo repositories.GroupRepository, balances *BalanceService, log *zap.Logger) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		balances:  balances,
		log:       log,
	}
}

// CreateGroupInput represents create group input
type CreateGroupInput struct {
	Name                string          `json:"name" validate:"required,max=100"`
	Description         string          `json:"description" validate:"max=2000"`
	MonthlyContribution decimal.Decimal `json:"monthly_contribution"`
}

// UpdateGroupInput represents update group input
type UpdateGroupInput struct {
	Name                *string          `json:"name" validate:"omitempty,max=100"`
	Description         *string          `json:"description" validate:"omitempty,max=2000"`
	MonthlyContribution *decimal.Decimal `json:"monthly_contribution"`
}

// ListGroupsOutput represents list groups output
type ListGroupsOutput struct {
	Groups []*models.ChamaGroupResponse `json:"groups"`
	Meta   *pagination.Meta             `json:"meta"`
}

// GroupBalanceOutput summarizes the group's verified money
type GroupBalanceOutput struct {
	GroupID             string `json:"group_id"`
	Name                string `json:"name"`
	TotalBalance        string `json:"total_balance"`
	TotalContributions  string `json:"total_contributions"`
	TotalFines          string `json:"total_fines"`
	TotalPayouts        string `json:"total_payouts"`
	TotalExpenses       string `json:"total_expenses"`
	MonthlyContribution string `json:"monthly_contribution"`
}

// Create creates a chama group
func (s *GroupService) Create(ctx context.Context, input *CreateGroupInput, actor domain.Actor) (*models.ChamaGroup, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	name := sanitize.Text(input.Name)
	if name == "" {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "name", input.Name, "name is required")
	}
	if err := validateContribution(input.MonthlyContribution); err != nil {
		return nil, err
	}

	group := &models.ChamaGroup{
		ID:                  uuid.NewString(),
		Name:                name,
		Description:         sanitize.Text(input.Description),
		MonthlyContribution: input.MonthlyContribution,
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		s.log.Error("failed to create group", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.log.Info("group created", zap.String("group_id", group.ID))
	return group, nil
}

// Update updates a chama group
func (s *GroupService) Update(ctx context.Context, id string, input *UpdateGroupInput, actor domain.Actor) (*models.ChamaGroup, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	group, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := sanitize.Text(*input.Name)
		if name == "" {
			return nil, domain.NewValidationError(domain.ErrInvalidInput, "name", *input.Name, "name is required")
		}
		group.Name = name
	}
	if input.Description != nil {
		group.Description = sanitize.Text(*input.Description)
	}
	if input.MonthlyContribution != nil {
		if err := validateContribution(*input.MonthlyContribution); err != nil {
			return nil, err
		}
		group.MonthlyContribution = *input.MonthlyContribution
	}

	if err := s.groupRepo.Update(ctx, group); err != nil {
		s.log.Error("failed to update group", zap.String("group_id", id), zap.Error(err))
		return nil, fmt.Errorf("update group: %w", err)
	}

	return group, nil
}

// Get gets a group by ID
func (s *GroupService) Get(ctx context.Context, id string) (*models.ChamaGroup, error) {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("load group: %w", err)
	}
	return group, nil
}

// List lists groups oldest first
func (s *GroupService) List(ctx context.Context, page, limit int) (*ListGroupsOutput, error) {
	params := pagination.New(page, limit)

	groups, total, err := s.groupRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	responses := make([]*models.ChamaGroupResponse, len(groups))
	for i, g := range groups {
		responses[i] = g.ToResponse()
	}

	return &ListGroupsOutput{
		Groups: responses,
		Meta:   pagination.GetMeta(params, total),
	}, nil
}

// Balance returns the ledger totals alongside the group's settings
func (s *GroupService) Balance(ctx context.Context, id string) (*GroupBalanceOutput, error) {
	group, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	totals, err := s.balances.GroupTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("group totals: %w", err)
	}

	return &GroupBalanceOutput{
		GroupID:             group.ID,
		Name:                group.Name,
		TotalBalance:        money(totals.GroupBalance()),
		TotalContributions:  money(totals.Contributions),
		TotalFines:          money(totals.Fines),
		TotalPayouts:        money(totals.Payouts),
		TotalExpenses:       money(totals.Expenses),
		MonthlyContribution: money(group.MonthlyContribution),
	}, nil
}

func validateContribution(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewValidationError(domain.ErrInvalidAmount, "monthly_contribution", amount.String(),
			"monthly contribution must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return domain.NewValidationError(domain.ErrInvalidAmount, "monthly_contribution", amount.String(),
			"monthly contribution must have at most 2 decimal places")
	}
	return nil
}
