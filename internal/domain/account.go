package domain

import "github.com/shopspring/decimal"

// AccountNumberLength is the fixed width of every account identifier.
const AccountNumberLength = 6

// ExternalDepositSource is the sentinel source account used for deposit-style
// credits. It never exists in the ledger and is never debited.
const ExternalDepositSource = "EXTERNAL_DEPOSIT"

// Account represents an account row in the ledger.
// The balance is mutated only through ledger operations that hold the
// per-row exclusive lock.
type Account struct {
	AccountNumber string
	Balance       decimal.Decimal
}

// ValidAccountNumber reports whether an identifier is a well-formed
// account number.
func ValidAccountNumber(n string) bool {
	return len(n) == AccountNumberLength
}
