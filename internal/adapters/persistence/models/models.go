package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Identity Tables
// ============================================================

// User represents users table
type User struct {
	ID                  string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email               string         `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FirstName           string         `gorm:"size:150" json:"first_name"`
	LastName            string         `gorm:"size:150" json:"last_name"`
	PhoneNumber         *string        `gorm:"size:15" json:"phone_number"`
	Password            string         `gorm:"size:255;not null" json:"-"`
	IsActive            bool           `gorm:"default:true" json:"is_active"`
	IsStaff             bool           `gorm:"default:false" json:"is_staff"`
	IsSuperuser         bool           `gorm:"default:false" json:"is_superuser"`
	FailedLoginAttempts int            `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time     `json:"-"`
	LastLogin           *time.Time     `json:"last_login"`
	LastLoginIP         *string        `gorm:"size:45" json:"-"`
	LastPasswordChange  *time.Time     `json:"-"`
	ResetTokenHash      *string        `gorm:"size:64;index" json:"-"`
	ResetSentAt         *time.Time     `json:"-"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// IsLocked reports whether the account is locked at now
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// FullName joins first and last name, falling back to email
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Email
}

// UserResponse DTO
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	PhoneNumber *string    `json:"phone_number"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login"`
	MemberID    *string    `json:"member_id,omitempty"`
	MemberRole  string     `json:"member_role,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		PhoneNumber: u.PhoneNumber,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string     `gorm:"type:varchar(36);index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:64;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(rt.ExpiresAt)
}

// ============================================================
// Ledger Tables
// ============================================================

// Member represents a chama member
type Member struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      *string   `gorm:"type:varchar(36);index" json:"user_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	PhoneNumber string    `gorm:"size:15;not null" json:"phone_number"`
	Role        string    `gorm:"size:10;not null;default:'MEMBER'" json:"role"`
	Status      string    `gorm:"size:10;not null;default:'ACTIVE';index" json:"status"`
	DateJoined  time.Time `gorm:"not null" json:"date_joined"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}

// MemberResponse DTO
type MemberResponse struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	DateJoined  time.Time `json:"date_joined"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:          m.ID,
		UserID:      m.UserID,
		Name:        m.Name,
		PhoneNumber: m.PhoneNumber,
		Role:        m.Role,
		Status:      m.Status,
		DateJoined:  m.DateJoined,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// Transaction represents a ledger entry
type Transaction struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	MemberID        *string         `gorm:"type:varchar(36);index" json:"member_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Date            time.Time       `gorm:"not null;index" json:"date"`
	TransactionType string          `gorm:"size:15;not null;index" json:"transaction_type"`
	MpesaCode       string          `gorm:"size:10;not null;uniqueIndex" json:"mpesa_code"`
	Status          string          `gorm:"size:10;not null;default:'PENDING';index" json:"status"`
	Description     string          `gorm:"type:text" json:"description"`
	CreatedBy       string          `gorm:"type:varchar(36);not null" json:"created_by"`
	VerifiedBy      *string         `gorm:"type:varchar(36)" json:"verified_by"`
	VerifiedAt      *time.Time      `json:"verified_at"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// TransactionResponse DTO
type TransactionResponse struct {
	ID              string     `json:"id"`
	MemberID        *string    `json:"member_id"`
	MemberName      string     `json:"member_name,omitempty"`
	Amount          string     `json:"amount"`
	Date            time.Time  `json:"date"`
	TransactionType string     `json:"transaction_type"`
	MpesaCode       string     `json:"mpesa_code"`
	Status          string     `json:"status"`
	Description     string     `json:"description"`
	CreatedBy       string     `json:"created_by"`
	VerifiedBy      *string    `json:"verified_by"`
	VerifiedAt      *time.Time `json:"verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (t *Transaction) ToResponse() *TransactionResponse {
	resp := &TransactionResponse{
		ID:              t.ID,
		MemberID:        t.MemberID,
		Amount:          t.Amount.StringFixed(2),
		Date:            t.Date,
		TransactionType: t.TransactionType,
		MpesaCode:       t.MpesaCode,
		Status:          t.Status,
		Description:     t.Description,
		CreatedBy:       t.CreatedBy,
		VerifiedBy:      t.VerifiedBy,
		VerifiedAt:      t.VerifiedAt,
		CreatedAt:       t.CreatedAt,
	}

	if t.Member != nil {
		resp.MemberName = t.Member.Name
	}

	return resp
}

// TransactionsToResponse converts a slice of transactions
func TransactionsToResponse(txs []*Transaction) []*TransactionResponse {
	out := make([]*TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ToResponse())
	}
	return out
}

// ChamaGroup represents the savings group
type ChamaGroup struct {
	ID                  string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name                string          `gorm:"size:100;not null" json:"name"`
	Description         string          `gorm:"type:text" json:"description"`
	MonthlyContribution decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"monthly_contribution"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ChamaGroup) TableName() string {
	return "chama_groups"
}

// ChamaGroupResponse DTO
type ChamaGroupResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	MonthlyContribution string    `json:"monthly_contribution"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (g *ChamaGroup) ToResponse() *ChamaGroupResponse {
	return &ChamaGroupResponse{
		ID:                  g.ID,
		Name:                g.Name,
		Description:         g.Description,
		MonthlyContribution: g.MonthlyContribution.StringFixed(2),
		CreatedAt:           g.CreatedAt,
		UpdatedAt:           g.UpdatedAt,
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Member{},
		&ChamaGroup{},
		&Transaction{},
	)
}
