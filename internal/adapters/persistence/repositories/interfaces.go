package repositories

import (
	"context"
	"time"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/core/domain"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// DeleteAndDetachMembers soft deletes the user and clears user_id on every
	// linked member in one database transaction.
	DeleteAndDetachMembers(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) error
	RecordSuccessfulLogin(ctx context.Context, id string, ip string, at time.Time) error
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountActiveByUserID(ctx context.Context, userID string, now time.Time) (int64, error)
}

// MemberFilter narrows member listings
type MemberFilter struct {
	Status string
	Role   string
	Search string
}

// MemberRepository defines member registry interface
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id string) (*models.Member, error)
	GetByUserID(ctx context.Context, userID string) (*models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	List(ctx context.Context, filter MemberFilter, offset, limit int) ([]*models.Member, int64, error)
	ListByStatus(ctx context.Context, status domain.MemberStatus) ([]*models.Member, error)
	CountByStatus(ctx context.Context, status domain.MemberStatus) (int64, error)
	ExistsByUserID(ctx context.Context, userID, excludeMemberID string) (bool, error)
}

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	Type     string
	Status   string
	MemberID string
}

// SumFilter narrows verified sums. Nil bounds are open.
type SumFilter struct {
	MemberID *string
	Types    []domain.TransactionType
	From     *time.Time
	To       *time.Time
}

// TransactionRepository defines ledger store interface
type TransactionRepository interface {
	// RunInTx runs fn against a repository bound to a single database transaction
	RunInTx(ctx context.Context, fn func(repo TransactionRepository) error) error
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	// UpdatePending rewrites the editable columns of a PENDING transaction.
	// It returns the number of rows changed.
	UpdatePending(ctx context.Context, tx *models.Transaction) (int64, error)
	ExistsByMpesaCode(ctx context.Context, code, excludeID string) (bool, error)
	// Finalize sets status, verifier and timestamp only when the row is not
	// already in status. It returns the number of rows changed.
	Finalize(ctx context.Context, id string, status domain.TransactionStatus, verifiedBy string, at time.Time) (int64, error)
	SumVerified(ctx context.Context, filter SumFilter) (domain.LedgerTotals, error)
	List(ctx context.Context, filter TransactionFilter, offset, limit int) ([]*models.Transaction, int64, error)
	CountByStatus(ctx context.Context, status domain.TransactionStatus) (int64, error)
	LastVerifiedDate(ctx context.Context, memberID string, txType domain.TransactionType) (*time.Time, error)
}

// GroupRepository defines chama group repository interface
type GroupRepository interface {
	Create(ctx context.Context, group *models.ChamaGroup) error
	GetByID(ctx context.Context, id string) (*models.ChamaGroup, error)
	GetFirst(ctx context.Context) (*models.ChamaGroup, error)
	Update(ctx context.Context, group *models.ChamaGroup) error
	List(ctx context.Context, offset, limit int) ([]*models.ChamaGroup, int64, error)
}
