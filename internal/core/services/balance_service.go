package services

import (
	"context"
	"errors"
	"time"

	"chamanexus/internal/adapters/persistence/repositories"
	"chamanexus/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BalanceService computes balances and payment status from verified entries.
// It never mutates the ledger.
type BalanceService struct {
	txRepo     repositories.TransactionRepository
	memberRepo repositories.MemberRepository
	groupRepo  repositories.GroupRepository
}

// NewBalanceService creates a new balance service
func NewBalanceService(
	txRepo repositories.TransactionRepository,
	memberRepo repositories.MemberRepository,
	groupRepo repositories.GroupRepository,
) *BalanceService {
	return &BalanceService{
		txRepo:     txRepo,
		memberRepo: memberRepo,
		groupRepo:  groupRepo,
	}
}

// MemberBalance returns verified contributions less fines and payouts
func (s *BalanceService) MemberBalance(ctx context.Context, memberID string) (decimal.Decimal, error) {
	if err := s.ensureMember(ctx, memberID); err != nil {
		return decimal.Zero, err
	}
	return s.memberBalance(ctx, memberID)
}

func (s *BalanceService) memberBalance(ctx context.Context, memberID string) (decimal.Decimal, error) {
	totals, err := s.txRepo.SumVerified(ctx, repositories.SumFilter{MemberID: &memberID})
	if err != nil {
		return decimal.Zero, err
	}
	return totals.MemberBalance(), nil
}

// GroupBalance returns contributions plus fines less payouts and expenses
func (s *BalanceService) GroupBalance(ctx context.Context) (decimal.Decimal, error) {
	totals, err := s.txRepo.SumVerified(ctx, repositories.SumFilter{})
	if err != nil {
		return decimal.Zero, err
	}
	return totals.GroupBalance(), nil
}

// TotalFines returns the sum of verified fines across all members
func (s *BalanceService) TotalFines(ctx context.Context) (decimal.Decimal, error) {
	totals, err := s.txRepo.SumVerified(ctx, repositories.SumFilter{
		Types: []domain.TransactionType{domain.TxTypeFine},
	})
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Fines, nil
}

// GroupTotals returns every verified sum for the whole group
func (s *BalanceService) GroupTotals(ctx context.Context) (domain.LedgerTotals, error) {
	return s.txRepo.SumVerified(ctx, repositories.SumFilter{})
}

// ExpectedContribution returns the monthly contribution of the first group,
// or nil when no group is configured.
func (s *BalanceService) ExpectedContribution(ctx context.Context) (*decimal.Decimal, error) {
	group, err := s.groupRepo.GetFirst(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	amount := group.MonthlyContribution
	return &amount, nil
}

// ContributionsBetween sums a member's verified contributions in [from, to]
func (s *BalanceService) ContributionsBetween(ctx context.Context, memberID string, from, to time.Time) (decimal.Decimal, error) {
	totals, err := s.txRepo.SumVerified(ctx, repositories.SumFilter{
		MemberID: &memberID,
		Types:    []domain.TransactionType{domain.TxTypeContribution},
		From:     &from,
		To:       &to,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Contributions, nil
}

// PaymentStatusOutput represents a member's cycle compliance
type PaymentStatusOutput struct {
	MemberID       string               `json:"member_id"`
	Status         domain.PaymentStatus `json:"status"`
	ExpectedAmount *string              `json:"expected_amount"`
	PaidThisMonth  string               `json:"paid_this_month"`
	Outstanding    string               `json:"outstanding"`
	DaysOverdue    int                  `json:"days_overdue"`
	Balance        string               `json:"balance"`
	PeriodStart    time.Time            `json:"period_start"`
	AsOf           time.Time            `json:"as_of"`

	expected *decimal.Decimal
	paid     decimal.Decimal
}

// PaymentStatus classifies the member for the calendar month containing now
func (s *BalanceService) PaymentStatus(ctx context.Context, memberID string, now time.Time) (*PaymentStatusOutput, error) {
	if err := s.ensureMember(ctx, memberID); err != nil {
		return nil, err
	}

	expected, err := s.ExpectedContribution(ctx)
	if err != nil {
		return nil, err
	}
	return s.paymentStatus(ctx, memberID, expected, now)
}

// paymentStatus classifies against a known expected amount so callers that
// iterate members load the group once.
func (s *BalanceService) paymentStatus(ctx context.Context, memberID string, expected *decimal.Decimal, now time.Time) (*PaymentStatusOutput, error) {
	start := domain.MonthStart(now)

	paid, err := s.ContributionsBetween(ctx, memberID, start, now)
	if err != nil {
		return nil, err
	}

	balance, err := s.memberBalance(ctx, memberID)
	if err != nil {
		return nil, err
	}

	status := domain.ClassifyPaymentStatus(expected, paid, now)
	out := &PaymentStatusOutput{
		MemberID:      memberID,
		Status:        status,
		PaidThisMonth: money(paid),
		Outstanding:   money(decimal.Zero),
		DaysOverdue:   domain.DaysOverdue(status, now),
		Balance:       money(balance),
		PeriodStart:   start,
		AsOf:          now,
		expected:      expected,
		paid:          paid,
	}
	if expected != nil {
		exp := money(*expected)
		out.ExpectedAmount = &exp
		out.Outstanding = money(domain.Outstanding(*expected, paid))
	}
	return out, nil
}

func (s *BalanceService) ensureMember(ctx context.Context, memberID string) error {
	if _, err := s.memberRepo.GetByID(ctx, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrMemberNotFound
		}
		return err
	}
	return nil
}
