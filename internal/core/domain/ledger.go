package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GracePeriodDays is the number of days at the start of a month before an
// unpaid member becomes overdue.
const GracePeriodDays = 7

// MpesaCodeLength is the length of a normalized mpesa reference code
const MpesaCodeLength = 10

var (
	mpesaCodePattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	phonePattern     = regexp.MustCompile(`^\+254\d{9}$`)
	phoneStripper    = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

	// MaxAmount is the exclusive upper bound for a single transaction
	MaxAmount = decimal.NewFromInt(100_000_000)
)

// NormalizeMpesaCode trims and upper-cases a reference code
func NormalizeMpesaCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateMpesaCode checks the shape of an already normalized reference code
func ValidateMpesaCode(code string) error {
	if !mpesaCodePattern.MatchString(code) {
		return NewValidationError(ErrInvalidReferenceFormat, "mpesa_code", code,
			fmt.Sprintf("mpesa code must be %d uppercase letters or digits", MpesaCodeLength))
	}
	return nil
}

// NormalizePhoneNumber converts local and bare-country forms to +254XXXXXXXXX
func NormalizePhoneNumber(raw string) (string, error) {
	phone := phoneStripper.Replace(strings.TrimSpace(raw))

	switch {
	case strings.HasPrefix(phone, "0") && len(phone) == 10:
		phone = "+254" + phone[1:]
	case strings.HasPrefix(phone, "254"):
		phone = "+" + phone
	}

	if !phonePattern.MatchString(phone) {
		return "", NewValidationError(ErrInvalidPhoneNumber, "phone_number", raw,
			"phone number must be in the format +254XXXXXXXXX or 0XXXXXXXXX")
	}
	return phone, nil
}

// ValidateAmount checks that an amount is positive, has at most two decimal
// places and is below MaxAmount.
func ValidateAmount(amount decimal.Decimal) error {
	value := amount.String()

	if !amount.IsPositive() {
		return NewValidationError(ErrInvalidAmount, "amount", value, "amount must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return NewValidationError(ErrInvalidAmount, "amount", value, "amount must have at most 2 decimal places")
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return NewValidationError(ErrInvalidAmount, "amount", value, "amount exceeds the maximum allowed")
	}
	return nil
}

// ValidateTransactionFields applies the store-independent rules to a candidate
// transaction. code must already be normalized.
func ValidateTransactionFields(txType TransactionType, hasMember bool, amount decimal.Decimal, code string) error {
	if !txType.IsValid() {
		return NewValidationError(ErrInvalidTransactionType, "transaction_type", string(txType),
			"transaction type must be one of CONTRIBUTION, FINE, PAYOUT, EXPENSE")
	}
	if err := ValidateMpesaCode(code); err != nil {
		return err
	}
	if txType.RequiresMember() && !hasMember {
		return NewValidationError(ErrMissingMember, "member_id", "",
			fmt.Sprintf("member is required for %s transactions", txType))
	}
	return ValidateAmount(amount)
}

// DuplicateReferenceError reports a reference code that is already recorded
func DuplicateReferenceError(code string) *ValidationError {
	return NewValidationError(ErrDuplicateReference, "mpesa_code", code,
		fmt.Sprintf("transaction with mpesa code %s already exists", code))
}

// CanManageTransactions reports whether the actor may submit, verify or reject
// transactions: a superuser, or an ACTIVE treasurer or admin member.
func CanManageTransactions(actor Actor) bool {
	if actor.IsSuperuser {
		return true
	}
	if actor.Member == nil || actor.Member.Status != MemberStatusActive {
		return false
	}
	return actor.Member.Role == MemberRoleTreasurer || actor.Member.Role == MemberRoleAdmin
}

// CheckTransition validates moving a transaction from current to target.
// Only same-state finalization is refused; a rejected entry may be verified
// and a verified entry may be rejected.
func CheckTransition(current, target TransactionStatus) error {
	switch target {
	case TxStatusVerified:
		if current == TxStatusVerified {
			return ErrAlreadyVerified
		}
	case TxStatusRejected:
		if current == TxStatusRejected {
			return ErrAlreadyRejected
		}
	default:
		return NewValidationError(ErrInvalidStatus, "status", string(target), "target status must be VERIFIED or REJECTED")
	}
	return nil
}

// LedgerTotals holds verified sums per transaction type
type LedgerTotals struct {
	Contributions decimal.Decimal
	Fines         decimal.Decimal
	Payouts       decimal.Decimal
	Expenses      decimal.Decimal
}

// Add accumulates amount under the given type
func (t *LedgerTotals) Add(txType TransactionType, amount decimal.Decimal) {
	switch txType {
	case TxTypeContribution:
		t.Contributions = t.Contributions.Add(amount)
	case TxTypeFine:
		t.Fines = t.Fines.Add(amount)
	case TxTypePayout:
		t.Payouts = t.Payouts.Add(amount)
	case TxTypeExpense:
		t.Expenses = t.Expenses.Add(amount)
	}
}

// MemberBalance is contributions less fines and payouts
func (t LedgerTotals) MemberBalance() decimal.Decimal {
	return t.Contributions.Sub(t.Fines.Add(t.Payouts)).Round(2)
}

// GroupBalance is contributions plus fines less payouts and expenses
func (t LedgerTotals) GroupBalance() decimal.Decimal {
	return t.Contributions.Add(t.Fines).Sub(t.Payouts.Add(t.Expenses)).Round(2)
}

// MonthStart returns 00:00 on the first day of now's month in now's location
func MonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// DayStart returns 00:00 of now's day in now's location
func DayStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// ClassifyPaymentStatus derives the cycle status from this month's verified
// contributions. A nil or non-positive expected amount yields UNKNOWN.
func ClassifyPaymentStatus(expected *decimal.Decimal, paid decimal.Decimal, now time.Time) PaymentStatus {
	if expected == nil || !expected.IsPositive() {
		return PaymentUnknown
	}
	if paid.GreaterThanOrEqual(*expected) {
		return PaymentPaid
	}
	if paid.IsPositive() {
		return PaymentShort
	}
	if now.Day() > GracePeriodDays {
		return PaymentOverdue
	}
	return PaymentShort
}

// DaysOverdue counts days past the grace period, zero unless status is OVERDUE
func DaysOverdue(status PaymentStatus, now time.Time) int {
	if status != PaymentOverdue {
		return 0
	}
	return now.Day() - GracePeriodDays
}

// Outstanding is the unpaid part of the expected amount, never negative
func Outstanding(expected, paid decimal.Decimal) decimal.Decimal {
	diff := expected.Sub(paid)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff.Round(2)
}
