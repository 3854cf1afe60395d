package repositories

import (
	"context"
	"errors"
	"time"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// transactionRepository implements TransactionRepository interface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// RunInTx runs fn inside a database transaction
func (r *transactionRepository) RunInTx(ctx context.Context, fn func(repo TransactionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&transactionRepository{db: tx})
	})
}

// Create creates a new transaction
func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Omit("Member").Create(tx).Error
}

// GetByID gets a transaction by ID with its member
func (r *transactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("id = ?", id).
		First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// UpdatePending updates editable columns while the row is still PENDING
func (r *transactionRepository) UpdatePending(ctx context.Context, tx *models.Transaction) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", tx.ID, string(domain.TxStatusPending)).
		Updates(map[string]interface{}{
			"member_id":        tx.MemberID,
			"amount":           tx.Amount,
			"date":             tx.Date,
			"transaction_type": tx.TransactionType,
			"mpesa_code":       tx.MpesaCode,
			"description":      tx.Description,
		})
	return res.RowsAffected, res.Error
}

// ExistsByMpesaCode checks for a reference code in any status, ignoring excludeID
func (r *transactionRepository) ExistsByMpesaCode(ctx context.Context, code, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("mpesa_code = ?", code)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Finalize applies a verification decision guarded by the current status
func (r *transactionRepository) Finalize(ctx context.Context, id string, status domain.TransactionStatus, verifiedBy string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status <> ?", id, string(status)).
		Updates(map[string]interface{}{
			"status":      string(status),
			"verified_by": verifiedBy,
			"verified_at": at.UTC(),
		})
	return res.RowsAffected, res.Error
}

// typeTotal is one row of the verified sums query
type typeTotal struct {
	TransactionType string
	Total           decimal.Decimal
}

// SumVerified sums VERIFIED amounts grouped by transaction type
func (r *transactionRepository) SumVerified(ctx context.Context, filter SumFilter) (domain.LedgerTotals, error) {
	var totals domain.LedgerTotals
	var rows []typeTotal

	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("transaction_type, COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", string(domain.TxStatusVerified))

	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		query = query.Where("transaction_type IN ?", types)
	}
	// dates are stored in UTC; sqlite compares them as text
	if filter.From != nil {
		query = query.Where("date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("date <= ?", filter.To.UTC())
	}

	if err := query.Group("transaction_type").Scan(&rows).Error; err != nil {
		return totals, err
	}

	for _, row := range rows {
		totals.Add(domain.TransactionType(row.TransactionType), row.Total.Round(2))
	}
	return totals, nil
}

// List lists transactions with filters, newest first
func (r *transactionRepository) List(ctx context.Context, filter TransactionFilter, offset, limit int) ([]*models.Transaction, int64, error) {
	var txs []*models.Transaction
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Scopes(transactionFilterScope(filter)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Preload("Member").
		Scopes(transactionFilterScope(filter)).
		Order("date DESC").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func transactionFilterScope(filter TransactionFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Type != "" {
			db = db.Where("transaction_type = ?", filter.Type)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.MemberID != "" {
			db = db.Where("member_id = ?", filter.MemberID)
		}
		return db
	}
}

// CountByStatus counts transactions in a status
func (r *transactionRepository) CountByStatus(ctx context.Context, status domain.TransactionStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("status = ?", string(status)).
		Count(&count).Error
	return count, err
}

// LastVerifiedDate returns the date of the member's latest verified entry of a type
func (r *transactionRepository) LastVerifiedDate(ctx context.Context, memberID string, txType domain.TransactionType) (*time.Time, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).
		Select("date").
		Where("member_id = ?", memberID).
		Where("transaction_type = ?", string(txType)).
		Where("status = ?", string(domain.TxStatusVerified)).
		Order("date DESC").
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx.Date, nil
}
