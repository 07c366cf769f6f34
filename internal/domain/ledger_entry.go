package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType classifies a ledger entry
type EntryType string

const (
	EntryTransferOut EntryType = "transfer_out"
	EntryTransferIn  EntryType = "transfer_in"
	EntryDeposit     EntryType = "deposit"
)

// LedgerEntry is one leg of an applied transfer. Every completed transfer
// appends a matching transfer_out/transfer_in pair (or a single deposit
// entry), linked to the job by transfer ID so that the ledger stays a
// materialized view of the job log.
type LedgerEntry struct {
	TransferID    uuid.UUID
	AccountNumber string
	Amount        decimal.Decimal
	Type          EntryType
	CreatedAt     time.Time
}
