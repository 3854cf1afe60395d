package services

import (
	"context"
	"fmt"
	"time"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/adapters/persistence/repositories"
	"chamanexus/internal/core/domain"

	"github.com/shopspring/decimal"
)

const (
	memberRecentLimit    = 5
	treasurerRecentLimit = 10
)

// DashboardService builds the member and treasurer dashboards
type DashboardService struct {
	txRepo     repositories.TransactionRepository
	memberRepo repositories.MemberRepository
	balances   *BalanceService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	txRepo repositories.TransactionRepository,
	memberRepo repositories.MemberRepository,
	balances *BalanceService,
) *DashboardService {
	return &DashboardService{
		txRepo:     txRepo,
		memberRepo: memberRepo,
		balances:   balances,
	}
}

// ============================================================
// Member Dashboard
// ============================================================

// MemberDashboardData represents the dashboard of a linked member
type MemberDashboardData struct {
	MemberID             string                        `json:"member_id"`
	MemberName           string                        `json:"member_name"`
	PersonalBalance      string                        `json:"personal_balance"`
	GroupBalance         string                        `json:"group_balance"`
	PaymentStatus        *PaymentStatusOutput          `json:"payment_status"`
	ContributionsMonth   string                        `json:"contributions_this_month"`
	ContributionsAllTime string                        `json:"contributions_all_time"`
	LastContributionDate *time.Time                    `json:"last_contribution_date"`
	RecentTransactions   []*models.TransactionResponse `json:"recent_transactions"`
}

// GetMemberDashboard returns the dashboard for the actor's linked member
func (s *DashboardService) GetMemberDashboard(ctx context.Context, actor domain.Actor, now time.Time) (*MemberDashboardData, error) {
	if actor.Member == nil {
		return nil, domain.ErrMemberNotLinked
	}
	member, err := s.memberRepo.GetByID(ctx, actor.Member.ID)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}

	totals, err := s.txRepo.SumVerified(ctx, repositories.SumFilter{MemberID: &member.ID})
	if err != nil {
		return nil, fmt.Errorf("member totals: %w", err)
	}

	groupBalance, err := s.balances.GroupBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("group balance: %w", err)
	}

	expected, err := s.balances.ExpectedContribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("expected contribution: %w", err)
	}
	status, err := s.balances.paymentStatus(ctx, member.ID, expected, now)
	if err != nil {
		return nil, fmt.Errorf("payment status: %w", err)
	}

	last, err := s.txRepo.LastVerifiedDate(ctx, member.ID, domain.TxTypeContribution)
	if err != nil {
		return nil, fmt.Errorf("last contribution: %w", err)
	}

	recent, _, err := s.txRepo.List(ctx, repositories.TransactionFilter{MemberID: member.ID}, 0, memberRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}

	return &MemberDashboardData{
		MemberID:             member.ID,
		MemberName:           member.Name,
		PersonalBalance:      money(totals.MemberBalance()),
		GroupBalance:         money(groupBalance),
		PaymentStatus:        status,
		ContributionsMonth:   money(status.paid),
		ContributionsAllTime: money(totals.Contributions),
		LastContributionDate: last,
		RecentTransactions:   models.TransactionsToResponse(recent),
	}, nil
}

// ============================================================
// Treasurer Dashboard
// ============================================================

// Defaulter is an active member behind on the current cycle
type Defaulter struct {
	MemberID             string               `json:"member_id"`
	Name                 string               `json:"name"`
	PhoneNumber          string               `json:"phone_number"`
	Status               domain.PaymentStatus `json:"status"`
	Outstanding          string               `json:"outstanding"`
	DaysOverdue          int                  `json:"days_overdue"`
	LastContributionDate *time.Time           `json:"last_contribution_date"`
}

// TreasurerDashboardData represents the treasurer overview
type TreasurerDashboardData struct {
	GroupBalance       string                        `json:"group_balance"`
	TotalFines         string                        `json:"total_fines"`
	CollectedToday     string                        `json:"collected_today"`
	ActiveMembers      int64                         `json:"active_members"`
	PendingCount       int64                         `json:"pending_verifications"`
	ExpectedAmount     *string                       `json:"expected_amount"`
	Defaulters         []Defaulter                   `json:"defaulters"`
	RecentTransactions []*models.TransactionResponse `json:"recent_transactions"`
}

// GetTreasurerDashboard returns the group overview for managers
func (s *DashboardService) GetTreasurerDashboard(ctx context.Context, actor domain.Actor, now time.Time) (*TreasurerDashboardData, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	totals, err := s.balances.GroupTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("group totals: %w", err)
	}

	dayStart := domain.DayStart(now)
	today, err := s.txRepo.SumVerified(ctx, repositories.SumFilter{
		Types: []domain.TransactionType{domain.TxTypeContribution},
		From:  &dayStart,
		To:    &now,
	})
	if err != nil {
		return nil, fmt.Errorf("today's collections: %w", err)
	}

	pending, err := s.txRepo.CountByStatus(ctx, domain.TxStatusPending)
	if err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}

	activeCount, err := s.memberRepo.CountByStatus(ctx, domain.MemberStatusActive)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}

	expected, err := s.balances.ExpectedContribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("expected contribution: %w", err)
	}

	defaulters, err := s.defaulters(ctx, expected, now)
	if err != nil {
		return nil, err
	}

	recent, _, err := s.txRepo.List(ctx, repositories.TransactionFilter{}, 0, treasurerRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}

	data := &TreasurerDashboardData{
		GroupBalance:       money(totals.GroupBalance()),
		TotalFines:         money(totals.Fines),
		CollectedToday:     money(today.Contributions),
		ActiveMembers:      activeCount,
		PendingCount:       pending,
		Defaulters:         defaulters,
		RecentTransactions: models.TransactionsToResponse(recent),
	}
	if expected != nil {
		exp := money(*expected)
		data.ExpectedAmount = &exp
	}
	return data, nil
}

// defaulters lists ACTIVE members whose status is SHORT or OVERDUE
func (s *DashboardService) defaulters(ctx context.Context, expected *decimal.Decimal, now time.Time) ([]Defaulter, error) {
	out := []Defaulter{}
	if expected == nil {
		return out, nil
	}

	members, err := s.memberRepo.ListByStatus(ctx, domain.MemberStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active members: %w", err)
	}

	for _, m := range members {
		status, err := s.balances.paymentStatus(ctx, m.ID, expected, now)
		if err != nil {
			return nil, fmt.Errorf("payment status for %s: %w", m.ID, err)
		}
		if !status.Status.IsDefaulting() {
			continue
		}

		last, err := s.txRepo.LastVerifiedDate(ctx, m.ID, domain.TxTypeContribution)
		if err != nil {
			return nil, fmt.Errorf("last contribution for %s: %w", m.ID, err)
		}

		out = append(out, Defaulter{
			MemberID:             m.ID,
			Name:                 m.Name,
			PhoneNumber:          m.PhoneNumber,
			Status:               status.Status,
			Outstanding:          status.Outstanding,
			DaysOverdue:          status.DaysOverdue,
			LastContributionDate: last,
		})
	}
	return out, nil
}

// Summary picks the treasurer view for managers and the member view otherwise
func (s *DashboardService) Summary(ctx context.Context, actor domain.Actor, now time.Time) (interface{}, error) {
	if domain.CanManageTransactions(actor) {
		return s.GetTreasurerDashboard(ctx, actor, now)
	}
	return s.GetMemberDashboard(ctx, actor, now)
}
