package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/adapters/persistence/repositories"
	"chamanexus/internal/core/domain"
	"chamanexus/internal/pkg/metrics"
	"chamanexus/internal/pkg/pagination"
	"chamanexus/internal/pkg/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TransactionService validates, records and verifies ledger entries
type TransactionService struct {
	txRepo     repositories.TransactionRepository
	memberRepo repositories.MemberRepository
	log        *zap.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(
	txRepo repositories.TransactionRepository,
	memberRepo repositories.MemberRepository,
	log *zap.Logger,
) *TransactionService {
	return &TransactionService{
		txRepo:     txRepo,
		memberRepo: memberRepo,
		log:        log,
	}
}

// SubmitTransactionInput represents a candidate transaction
type SubmitTransactionInput struct {
	MemberID        *string         `json:"member_id"`
	Amount          decimal.Decimal `json:"amount"`
	Date            *time.Time      `json:"date"`
	TransactionType string          `json:"transaction_type" validate:"required"`
	MpesaCode       string          `json:"mpesa_code" validate:"required"`
	Description     string          `json:"description" validate:"max=1000"`
}

// UpdateTransactionInput represents a patch to a PENDING transaction
type UpdateTransactionInput struct {
	MemberID        *string          `json:"member_id"`
	Amount          *decimal.Decimal `json:"amount"`
	Date            *time.Time       `json:"date"`
	TransactionType *string          `json:"transaction_type"`
	MpesaCode       *string          `json:"mpesa_code"`
	Description     *string          `json:"description" validate:"omitempty,max=1000"`
}

// ListTransactionsInput represents list transactions input
type ListTransactionsInput struct {
	Page     int
	Limit    int
	Type     string
	Status   string
	MemberID string
}

// ListTransactionsOutput represents list transactions output
type ListTransactionsOutput struct {
	Transactions []*models.TransactionResponse `json:"transactions"`
	Meta         *pagination.Meta              `json:"meta"`
}

// candidate is a normalized transaction ready for validation
type candidate struct {
	memberID    *string
	amount      decimal.Decimal
	date        time.Time
	txType      domain.TransactionType
	code        string
	description string
}

func normalizeCandidate(memberID *string, amount decimal.Decimal, date time.Time, txType, code, description string) candidate {
	c := candidate{
		amount:      amount,
		date:        date.UTC(),
		txType:      domain.TransactionType(strings.ToUpper(strings.TrimSpace(txType))),
		code:        domain.NormalizeMpesaCode(code),
		description: sanitize.Text(description),
	}
	// expenses are group-level entries
	if c.txType != domain.TxTypeExpense && memberID != nil && strings.TrimSpace(*memberID) != "" {
		id := strings.TrimSpace(*memberID)
		c.memberID = &id
	}
	return c
}

// validate runs the store-independent rules and resolves the member
func (s *TransactionService) validate(ctx context.Context, c candidate) (*models.Member, error) {
	if err := domain.ValidateTransactionFields(c.txType, c.memberID != nil, c.amount, c.code); err != nil {
		return nil, err
	}
	if c.memberID == nil {
		return nil, nil
	}

	member, err := s.memberRepo.GetByID(ctx, *c.memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewValidationError(domain.ErrMemberNotFound, "member_id", *c.memberID, "member not found")
		}
		return nil, err
	}
	return member, nil
}

// Submit validates a candidate and records it as PENDING.
// The duplicate lookup and insert share one database transaction; the unique
// index on mpesa_code catches submissions racing past the lookup.
func (s *TransactionService) Submit(ctx context.Context, input *SubmitTransactionInput, actor domain.Actor, now time.Time) (*models.Transaction, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	date := now
	if input.Date != nil {
		date = *input.Date
	}
	c := normalizeCandidate(input.MemberID, input.Amount, date, input.TransactionType, input.MpesaCode, input.Description)

	member, err := s.validate(ctx, c)
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}

	tx := &models.Transaction{
		ID:              uuid.NewString(),
		MemberID:        c.memberID,
		Amount:          c.amount,
		Date:            c.date,
		TransactionType: string(c.txType),
		MpesaCode:       c.code,
		Status:          string(domain.TxStatusPending),
		Description:     c.description,
		CreatedBy:       actor.UserID,
	}

	err = s.txRepo.RunInTx(ctx, func(repo repositories.TransactionRepository) error {
		exists, err := repo.ExistsByMpesaCode(ctx, c.code, "")
		if err != nil {
			return err
		}
		if exists {
			return domain.DuplicateReferenceError(c.code)
		}
		return repo.Create(ctx, tx)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = domain.DuplicateReferenceError(c.code)
		}
		if _, ok := domain.AsValidationError(err); ok {
			s.recordRejection(err)
			return nil, err
		}
		s.log.Error("failed to record transaction", zap.String("mpesa_code", c.code), zap.Error(err))
		return nil, err
	}

	tx.Member = member
	metrics.TransactionsSubmitted.WithLabelValues(tx.TransactionType).Inc()
	s.log.Info("transaction submitted",
		zap.String("transaction_id", tx.ID),
		zap.String("type", tx.TransactionType),
		zap.String("mpesa_code", tx.MpesaCode),
		zap.String("created_by", actor.UserID),
	)

	return tx, nil
}

// Update edits a PENDING transaction and re-runs validation, excluding the
// transaction itself from the duplicate lookup.
func (s *TransactionService) Update(ctx context.Context, id string, input *UpdateTransactionInput, actor domain.Actor) (*models.Transaction, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	tx, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.Status != string(domain.TxStatusPending) {
		return nil, domain.ErrTransactionFinalized
	}

	memberID, amount, date := tx.MemberID, tx.Amount, tx.Date
	txType, code, description := tx.TransactionType, tx.MpesaCode, tx.Description
	if input.MemberID != nil {
		memberID = input.MemberID
	}
	if input.Amount != nil {
		amount = *input.Amount
	}
	if input.Date != nil {
		date = *input.Date
	}
	if input.TransactionType != nil {
		txType = *input.TransactionType
	}
	if input.MpesaCode != nil {
		code = *input.MpesaCode
	}
	if input.Description != nil {
		description = *input.Description
	}

	c := normalizeCandidate(memberID, amount, date, txType, code, description)
	member, err := s.validate(ctx, c)
	if err != nil {
		return nil, err
	}

	tx.MemberID = c.memberID
	tx.Amount = c.amount
	tx.Date = c.date
	tx.TransactionType = string(c.txType)
	tx.MpesaCode = c.code
	tx.Description = c.description

	err = s.txRepo.RunInTx(ctx, func(repo repositories.TransactionRepository) error {
		exists, err := repo.ExistsByMpesaCode(ctx, c.code, tx.ID)
		if err != nil {
			return err
		}
		if exists {
			return domain.DuplicateReferenceError(c.code)
		}

		n, err := repo.UpdatePending(ctx, tx)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrTransactionFinalized
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.DuplicateReferenceError(c.code)
		}
		if !errors.Is(err, domain.ErrTransactionFinalized) && !errors.Is(err, domain.ErrDuplicateReference) {
			s.log.Error("failed to update transaction", zap.String("transaction_id", id), zap.Error(err))
		}
		return nil, err
	}

	tx.Member = member
	return tx, nil
}

// Verify moves a transaction to VERIFIED
func (s *TransactionService) Verify(ctx context.Context, id string, actor domain.Actor, now time.Time) (*models.Transaction, error) {
	return s.finalize(ctx, id, domain.TxStatusVerified, actor, now)
}

// Reject moves a transaction to REJECTED
func (s *TransactionService) Reject(ctx context.Context, id string, actor domain.Actor, now time.Time) (*models.Transaction, error) {
	return s.finalize(ctx, id, domain.TxStatusRejected, actor, now)
}

func (s *TransactionService) finalize(ctx context.Context, id string, target domain.TransactionStatus, actor domain.Actor, now time.Time) (*models.Transaction, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	tx, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(domain.TransactionStatus(tx.Status), target); err != nil {
		return nil, err
	}

	n, err := s.txRepo.Finalize(ctx, id, target, actor.UserID, now)
	if err != nil {
		s.log.Error("failed to finalize transaction",
			zap.String("transaction_id", id),
			zap.String("status", string(target)),
			zap.Error(err),
		)
		return nil, err
	}
	if n == 0 {
		// another request finalized it first; report what it observed
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := domain.CheckTransition(domain.TransactionStatus(current.Status), target); err != nil {
			return nil, err
		}
		return nil, domain.ErrTransactionFinalized
	}

	metrics.TransactionsFinalized.WithLabelValues(string(target)).Inc()
	s.log.Info("transaction finalized",
		zap.String("transaction_id", id),
		zap.String("from", tx.Status),
		zap.String("to", string(target)),
		zap.String("verified_by", actor.UserID),
	)

	return s.Get(ctx, id)
}

// Get gets a transaction by ID
func (s *TransactionService) Get(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// List lists transactions with optional type, status and member filters
func (s *TransactionService) List(ctx context.Context, input *ListTransactionsInput) (*ListTransactionsOutput, error) {
	params := pagination.New(input.Page, input.Limit)

	filter := repositories.TransactionFilter{
		Type:     strings.ToUpper(input.Type),
		Status:   strings.ToUpper(input.Status),
		MemberID: input.MemberID,
	}
	if filter.Type != "" && !domain.TransactionType(filter.Type).IsValid() {
		return nil, domain.NewValidationError(domain.ErrInvalidTransactionType, "type", input.Type, "unknown transaction type")
	}
	if filter.Status != "" && !domain.TransactionStatus(filter.Status).IsValid() {
		return nil, domain.NewValidationError(domain.ErrInvalidStatus, "status", input.Status, "unknown transaction status")
	}

	txs, total, err := s.txRepo.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	return &ListTransactionsOutput{
		Transactions: models.TransactionsToResponse(txs),
		Meta:         pagination.GetMeta(params, total),
	}, nil
}

// Pending lists transactions awaiting verification
func (s *TransactionService) Pending(ctx context.Context, page, limit int) (*ListTransactionsOutput, error) {
	return s.List(ctx, &ListTransactionsInput{
		Page:   page,
		Limit:  limit,
		Status: string(domain.TxStatusPending),
	})
}

// recordRejection counts a refused submission by its validation code
func (s *TransactionService) recordRejection(err error) {
	reason := "other"
	switch {
	case errors.Is(err, domain.ErrDuplicateReference):
		reason = "duplicate_reference"
	case errors.Is(err, domain.ErrMissingMember):
		reason = "missing_member"
	case errors.Is(err, domain.ErrInvalidAmount):
		reason = "invalid_amount"
	case errors.Is(err, domain.ErrInvalidReferenceFormat):
		reason = "invalid_reference_format"
	case errors.Is(err, domain.ErrInvalidTransactionType):
		reason = "invalid_transaction_type"
	case errors.Is(err, domain.ErrMemberNotFound):
		reason = "member_not_found"
	}
	metrics.SubmissionsRejected.WithLabelValues(reason).Inc()
}
