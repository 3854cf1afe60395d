package domain

// MemberRole represents a member's role inside the chama
type MemberRole string

const (
	MemberRoleTreasurer MemberRole = "TREASURER"
	MemberRoleAdmin     MemberRole = "ADMIN"
	MemberRoleMember    MemberRole = "MEMBER"
)

// IsValid reports whether r is a known member role
func (r MemberRole) IsValid() bool {
	switch r {
	case MemberRoleTreasurer, MemberRoleAdmin, MemberRoleMember:
		return true
	}
	return false
}

// MemberStatus represents the soft lifecycle of a member
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "ACTIVE"
	MemberStatusInactive  MemberStatus = "INACTIVE"
	MemberStatusSuspended MemberStatus = "SUSPENDED"
)

// IsValid reports whether s is a known member status
func (s MemberStatus) IsValid() bool {
	switch s {
	case MemberStatusActive, MemberStatusInactive, MemberStatusSuspended:
		return true
	}
	return false
}

// TransactionType represents the kind of ledger entry
type TransactionType string

const (
	TxTypeContribution TransactionType = "CONTRIBUTION"
	TxTypeFine         TransactionType = "FINE"
	TxTypePayout       TransactionType = "PAYOUT"
	TxTypeExpense      TransactionType = "EXPENSE"
)

// IsValid reports whether t is a known transaction type
func (t TransactionType) IsValid() bool {
	switch t {
	case TxTypeContribution, TxTypeFine, TxTypePayout, TxTypeExpense:
		return true
	}
	return false
}

// RequiresMember reports whether entries of this type must reference a member.
// EXPENSE is a group-level entry.
func (t TransactionType) RequiresMember() bool {
	return t != TxTypeExpense
}

// TransactionStatus represents the verification state of a transaction
type TransactionStatus string

const (
	TxStatusPending  TransactionStatus = "PENDING"
	TxStatusVerified TransactionStatus = "VERIFIED"
	TxStatusRejected TransactionStatus = "REJECTED"
)

// IsValid reports whether s is a known transaction status
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TxStatusPending, TxStatusVerified, TxStatusRejected:
		return true
	}
	return false
}

// PaymentStatus is a member's compliance for the current contribution cycle
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "PAID"
	PaymentShort   PaymentStatus = "SHORT"
	PaymentOverdue PaymentStatus = "OVERDUE"
	PaymentUnknown PaymentStatus = "UNKNOWN"
)

// IsDefaulting reports whether the status marks the member as a defaulter
func (p PaymentStatus) IsDefaulting() bool {
	return p == PaymentShort || p == PaymentOverdue
}

// ActorMember is the member record linked to an authenticated user
type ActorMember struct {
	ID     string
	Role   MemberRole
	Status MemberStatus
}

// Actor is the authenticated caller of a ledger operation
type Actor struct {
	UserID      string
	IsStaff     bool
	IsSuperuser bool
	Member      *ActorMember
}
