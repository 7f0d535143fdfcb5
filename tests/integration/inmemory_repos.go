package integration

import (
	"context"
	"sort"
	"sync"
	"time"

	"clinic-ledger/internal/core/domain"
	"clinic-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// The in-memory store mirrors the concurrency semantics the postgres adapter
// gets from row locks: Begin takes a store-wide mutex that is held until the
// transaction commits or rolls back, so every locked read-modify-write is
// serialized exactly as SELECT ... FOR UPDATE serializes it per row.

type memStore struct {
	mu        sync.Mutex
	wallets   map[uuid.UUID]domain.Wallet
	entries   []domain.LedgerTransaction
	shifts    map[uuid.UUID]domain.Shift
	handovers map[uuid.UUID]domain.CashHandover
}

func newMemStore() *memStore {
	return &memStore{
		wallets:   make(map[uuid.UUID]domain.Wallet),
		shifts:    make(map[uuid.UUID]domain.Shift),
		handovers: make(map[uuid.UUID]domain.CashHandover),
	}
}

// --- Locking transactor ---

type memTransactor struct {
	store *memStore
}

func (t *memTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.store.mu.Lock()
	return &memTx{store: t.store}, nil
}

// memTx holds the store lock from Begin until Commit or Rollback. Services
// defer Rollback after a successful Commit, so the unlock must fire once.
type memTx struct {
	pgx.Tx
	store *memStore
	once  sync.Once
}

func (t *memTx) Commit(ctx context.Context) error {
	t.once.Do(t.store.mu.Unlock)
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.once.Do(t.store.mu.Unlock)
	return nil
}

func (t *memTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}

// --- Wallet repo ---

type memWalletRepo struct {
	store *memStore
}

func (r *memWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.wallets[w.ID] = *w
	return nil
}

func (r *memWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.getByIDLocked(id), nil
}

func (r *memWalletRepo) getByIDLocked(id uuid.UUID) *domain.Wallet {
	w, ok := r.store.wallets[id]
	if !ok {
		return nil
	}
	cp := w
	return &cp
}

func (r *memWalletRepo) GetByPatientID(ctx context.Context, patientID uuid.UUID) (*domain.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, w := range r.store.wallets {
		if w.PatientID == patientID {
			cp := w
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByIDForUpdate runs inside a memTx, which already holds the store lock.
func (r *memWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return r.getByIDLocked(id), nil
}

func (r *memWalletRepo) Update(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.store.wallets[w.ID] = *w
	return nil
}

func (r *memWalletRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.wallets[id]
	if !ok {
		return nil
	}
	w.IsActive = active
	w.UpdatedAt = time.Now().UTC()
	r.store.wallets[id] = w
	return nil
}

// --- Ledger repo ---

type memLedgerRepo struct {
	store *memStore
}

func (r *memLedgerRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.LedgerTransaction) error {
	r.store.entries = append(r.store.entries, *e)
	return nil
}

func (r *memLedgerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.entries {
		if r.store.entries[i].ID == id {
			cp := r.store.entries[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memLedgerRepo) List(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerTransaction, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var patientWalletID *uuid.UUID
	if params.PatientID != nil {
		for _, w := range r.store.wallets {
			if w.PatientID == *params.PatientID {
				id := w.ID
				patientWalletID = &id
			}
		}
	}

	var matched []domain.LedgerTransaction
	for _, e := range r.store.entries {
		if params.WalletID != nil && (e.OwnerType != domain.OwnerWallet || e.OwnerID != *params.WalletID) {
			continue
		}
		if params.PatientID != nil {
			if patientWalletID == nil || e.OwnerType != domain.OwnerWallet || e.OwnerID != *patientWalletID {
				continue
			}
		}
		if params.Type != nil && e.Type != *params.Type {
			continue
		}
		if params.From != nil && e.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && e.CreatedAt.After(*params.To) {
			continue
		}
		matched = append(matched, e)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memLedgerRepo) ListByOwner(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID) ([]domain.LedgerTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := r.byOwnerLocked(ownerType, ownerID)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memLedgerRepo) byOwnerLocked(ownerType domain.OwnerType, ownerID uuid.UUID) []domain.LedgerTransaction {
	var out []domain.LedgerTransaction
	for _, e := range r.store.entries {
		if e.OwnerType == ownerType && e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out
}

func (r *memLedgerRepo) CountByOwner(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.byOwnerLocked(ownerType, ownerID))), nil
}

// SumSigned runs inside a memTx, which already holds the store lock.
func (r *memLedgerRepo) SumSigned(ctx context.Context, tx pgx.Tx, ownerType domain.OwnerType, ownerID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.byOwnerLocked(ownerType, ownerID) {
		sum = sum.Add(e.BalanceAfter.Sub(e.BalanceBefore))
	}
	return sum, nil
}

// --- Shift repo ---

type memShiftRepo struct {
	store *memStore
}

// putLocked enforces the one-active-shift-per-staff invariant the postgres
// adapter gets from its partial unique index.
func (r *memShiftRepo) putLocked(s *domain.Shift) error {
	if s.Status == domain.ShiftStatusActive {
		for _, existing := range r.store.shifts {
			if existing.ID != s.ID && existing.StaffID == s.StaffID && existing.Status == domain.ShiftStatusActive {
				return domain.ErrDuplicateActiveShift
			}
		}
	}
	r.store.shifts[s.ID] = *s
	return nil
}

func (r *memShiftRepo) Create(ctx context.Context, s *domain.Shift) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.putLocked(s)
}

func (r *memShiftRepo) CreateInTx(ctx context.Context, tx pgx.Tx, s *domain.Shift) error {
	return r.putLocked(s)
}

func (r *memShiftRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shift, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.getByIDLocked(id), nil
}

func (r *memShiftRepo) getByIDLocked(id uuid.UUID) *domain.Shift {
	s, ok := r.store.shifts[id]
	if !ok {
		return nil
	}
	cp := s
	return &cp
}

func (r *memShiftRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Shift, error) {
	return r.getByIDLocked(id), nil
}

func (r *memShiftRepo) GetActiveByStaff(ctx context.Context, staffID uuid.UUID) (*domain.Shift, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.shifts {
		if s.StaffID == staffID && s.Status == domain.ShiftStatusActive {
			cp := s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memShiftRepo) Update(ctx context.Context, tx pgx.Tx, s *domain.Shift) error {
	return r.putLocked(s)
}

// --- Handover repo ---

type memHandoverRepo struct {
	store *memStore
}

// Create mirrors the partial unique index: one pending handover per shift.
func (r *memHandoverRepo) Create(ctx context.Context, h *domain.CashHandover) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.handovers {
		if existing.FromShiftID == h.FromShiftID && existing.Status == domain.HandoverStatusPending {
			return domain.ErrDuplicatePendingHandover
		}
	}
	r.store.handovers[h.ID] = *h
	return nil
}

func (r *memHandoverRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CashHandover, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.getByIDLocked(id), nil
}

func (r *memHandoverRepo) getByIDLocked(id uuid.UUID) *domain.CashHandover {
	h, ok := r.store.handovers[id]
	if !ok {
		return nil
	}
	cp := h
	return &cp
}

func (r *memHandoverRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.CashHandover, error) {
	return r.getByIDLocked(id), nil
}

// Complete is the guarded transition: the stored row must still be PENDING.
func (r *memHandoverRepo) Complete(ctx context.Context, tx pgx.Tx, h *domain.CashHandover) error {
	stored, ok := r.store.handovers[h.ID]
	if !ok || stored.Status != domain.HandoverStatusPending {
		return domain.ErrHandoverNotPending
	}
	r.store.handovers[h.ID] = *h
	return nil
}

func (r *memHandoverRepo) ListPending(ctx context.Context, toStaffID uuid.UUID) ([]domain.CashHandover, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.CashHandover
	for _, h := range r.store.handovers {
		if h.ToStaffID == toStaffID && h.Status == domain.HandoverStatusPending {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// --- Audit repo ---

type memAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (r *memAuditRepo) Create(ctx context.Context, e *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}
