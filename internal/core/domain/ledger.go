package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OwnerType identifies which kind of account a ledger entry belongs to.
type OwnerType string

const (
	OwnerWallet OwnerType = "WALLET"
	OwnerShift  OwnerType = "SHIFT"
)

// TransactionType represents the kind of balance-affecting event.
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal  TransactionType = "WITHDRAWAL"
	TransactionTypePayment     TransactionType = "PAYMENT"
	TransactionTypeRefund      TransactionType = "REFUND"
	TransactionTypeAdjustment  TransactionType = "ADJUSTMENT"
	TransactionTypeOpening     TransactionType = "OPENING"
	TransactionTypeClosing     TransactionType = "CLOSING"
	TransactionTypeHandoverIn  TransactionType = "HANDOVER_IN"
	TransactionTypeHandoverOut TransactionType = "HANDOVER_OUT"
)

// TransactionStatus represents the lifecycle state of a ledger entry. Entries
// are only ever written fully applied, so COMPLETED is the only value the
// system produces; the column exists so history imports can carry other states.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// Reference links a ledger entry to an external record (invoice, handover, ...).
type Reference struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Actor identifies the staff member who processed an operation.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// LedgerTransaction is an immutable record of a single balance-affecting
// event with before/after snapshots. Corrections are new entries, never edits:
// no code path updates or deletes a row once written.
type LedgerTransaction struct {
	ID              uuid.UUID         `json:"id"`
	OwnerType       OwnerType         `json:"owner_type"`
	OwnerID         uuid.UUID         `json:"owner_id"`
	Type            TransactionType   `json:"type"`
	Status          TransactionStatus `json:"status"`
	Amount          decimal.Decimal   `json:"amount"` // unsigned magnitude
	BalanceBefore   decimal.Decimal   `json:"balance_before"`
	BalanceAfter    decimal.Decimal   `json:"balance_after"`
	Reference       *Reference        `json:"reference,omitempty"`
	PaymentMethod   *string           `json:"payment_method,omitempty"`
	Description     string            `json:"description"`
	ProcessedBy     uuid.UUID         `json:"processed_by"`
	ProcessedByName string            `json:"processed_by_name"`
	CreatedAt       time.Time         `json:"created_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
}

// SignedAmount returns the entry's effect on the owner's balance. It is
// derived from the snapshots, so it is correct for every entry type including
// adjustments and closings.
func (t *LedgerTransaction) SignedAmount() decimal.Decimal {
	return t.BalanceAfter.Sub(t.BalanceBefore)
}

// Entries are constructed only through the NewX functions below. Each
// constructor accepts exactly the fields legal for its type and computes
// balance_after from the type's direction, so an entry with an inconsistent
// field combination cannot be built.

func newEntry(ownerType OwnerType, ownerID uuid.UUID, typ TransactionType, amount, before, after decimal.Decimal, by Actor) *LedgerTransaction {
	now := time.Now().UTC()
	return &LedgerTransaction{
		ID:              uuid.New(),
		OwnerType:       ownerType,
		OwnerID:         ownerID,
		Type:            typ,
		Status:          TransactionStatusCompleted,
		Amount:          amount,
		BalanceBefore:   before,
		BalanceAfter:    after,
		ProcessedBy:     by.ID,
		ProcessedByName: by.Name,
		CreatedAt:       now,
		CompletedAt:     &now,
	}
}

// NewDeposit records money added to a wallet. balance_after = before + amount.
func NewDeposit(walletID uuid.UUID, before, amount decimal.Decimal, method, description string, by Actor) *LedgerTransaction {
	e := newEntry(OwnerWallet, walletID, TransactionTypeDeposit, amount, before, before.Add(amount), by)
	if method != "" {
		e.PaymentMethod = &method
	}
	e.Description = description
	return e
}

// NewWithdrawal records money taken out of a wallet. balance_after = before − amount.
func NewWithdrawal(walletID uuid.UUID, before, amount decimal.Decimal, description string, by Actor) *LedgerTransaction {
	e := newEntry(OwnerWallet, walletID, TransactionTypeWithdrawal, amount, before, before.Sub(amount), by)
	e.Description = description
	return e
}

// NewPayment records an invoice settlement from a wallet. The reference to the
// settled record is required for payments.
func NewPayment(walletID uuid.UUID, before, amount decimal.Decimal, ref Reference, description string, by Actor) *LedgerTransaction {
	e := newEntry(OwnerWallet, walletID, TransactionTypePayment, amount, before, before.Sub(amount), by)
	e.Reference = &ref
	e.Description = description
	return e
}

// NewRefund records money returned to a wallet, optionally linked to the
// original invoice.
func NewRefund(walletID uuid.UUID, before, amount decimal.Decimal, ref *Reference, description string, by Actor) *LedgerTransaction {
	e := newEntry(OwnerWallet, walletID, TransactionTypeRefund, amount, before, before.Add(amount), by)
	e.Reference = ref
	e.Description = description
	return e
}

// NewAdjustment records a manual signed correction.
// balance_after = before + signedAmount; the stored amount is the magnitude.
func NewAdjustment(walletID uuid.UUID, before, signedAmount decimal.Decimal, description string, by Actor) *LedgerTransaction {
	e := newEntry(OwnerWallet, walletID, TransactionTypeAdjustment, signedAmount.Abs(), before, before.Add(signedAmount), by)
	e.Description = description
	return e
}

// NewOpening records the counted cash a shift's drawer starts with.
func NewOpening(shiftID uuid.UUID, openingCash decimal.Decimal, by Actor) *LedgerTransaction {
	e := newEntry(OwnerShift, shiftID, TransactionTypeOpening, openingCash, decimal.Zero, openingCash, by)
	e.Description = "shift opening cash"
	return e
}

// NewClosing records the counted closing cash against the expected drawer
// balance. Its signed amount is therefore the cash discrepancy.
func NewClosing(shiftID uuid.UUID, expected, closing decimal.Decimal, by Actor) *LedgerTransaction {
	e := newEntry(OwnerShift, shiftID, TransactionTypeClosing, closing, expected, closing, by)
	e.Description = "shift closing cash"
	return e
}

// NewCashIn records cash received into an active shift's drawer.
func NewCashIn(shiftID uuid.UUID, before, amount decimal.Decimal, ref *Reference, description string, by Actor) *LedgerTransaction {
	e := newEntry(OwnerShift, shiftID, TransactionTypeDeposit, amount, before, before.Add(amount), by)
	e.Reference = ref
	e.Description = description
	return e
}

// NewCashOut records cash paid out of an active shift's drawer.
func NewCashOut(shiftID uuid.UUID, before, amount decimal.Decimal, ref *Reference, description string, by Actor) *LedgerTransaction {
	e := newEntry(OwnerShift, shiftID, TransactionTypeWithdrawal, amount, before, before.Sub(amount), by)
	e.Reference = ref
	e.Description = description
	return e
}

// NewHandoverOut empties the outgoing shift's drawer when custody transfers.
// The amount is the drawer's full recorded balance so nothing is counted twice.
func NewHandoverOut(shiftID uuid.UUID, drawerBalance decimal.Decimal, handoverID uuid.UUID, by Actor) *LedgerTransaction {
	e := newEntry(OwnerShift, shiftID, TransactionTypeHandoverOut, drawerBalance, drawerBalance, decimal.Zero, by)
	e.Reference = &Reference{ID: handoverID.String(), Type: "handover"}
	e.Description = "cash drawer handed over"
	return e
}

// NewHandoverIn opens the incoming shift's drawer with the counted amount. It
// doubles as the shift's opening entry: a separate OPENING row would count the
// carried-forward cash twice.
func NewHandoverIn(shiftID uuid.UUID, confirmedCash decimal.Decimal, handoverID uuid.UUID, by Actor) *LedgerTransaction {
	e := newEntry(OwnerShift, shiftID, TransactionTypeHandoverIn, confirmedCash, decimal.Zero, confirmedCash, by)
	e.Reference = &Reference{ID: handoverID.String(), Type: "handover"}
	e.Description = "cash drawer received"
	return e
}
