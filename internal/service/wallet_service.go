package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clinic-ledger/internal/core/domain"
	"clinic-ledger/internal/core/ports"
	"clinic-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const statsCacheTTL = 10 * time.Second

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
	statsCache ports.StatsCache // nil = caching disabled
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	statsCache ports.StatsCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		statsCache: statsCache,
		transactor: transactor,
		log:        log,
	}
}

// walletOp describes a single ledger-affecting wallet operation. guard and
// buildEntry are evaluated against the freshly-read wallet while its row lock
// is held, never against a balance read earlier.
type walletOp struct {
	// guard rejects the operation before anything is written. nil = no guard.
	guard func(w *domain.Wallet) error
	// buildEntry constructs the ledger entry from the current state.
	buildEntry func(w *domain.Wallet) *domain.LedgerTransaction
}

// apply is the single write path for wallet balances: lock the wallet row,
// re-read, validate, then persist the updated wallet and the new ledger entry
// in the same database transaction. On guard failure nothing is written.
func (s *WalletServiceImpl) apply(ctx context.Context, walletID uuid.UUID, op walletOp) (*domain.LedgerTransaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	if !wallet.IsActive {
		return nil, apperror.ErrInactiveWallet()
	}

	if op.guard != nil {
		if err := op.guard(wallet); err != nil {
			return nil, err
		}
	}

	entry := op.buildEntry(wallet)
	wallet.Apply(entry)

	if err := s.walletRepo.Update(ctx, dbTx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update wallet: %w", err))
	}
	if err := s.ledgerRepo.Create(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create ledger entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("type", string(entry.Type)).
		Str("amount", entry.Amount.String()).
		Str("balance", wallet.Balance.String()).
		Str("processed_by", entry.ProcessedBy.String()).
		Msg("wallet transaction completed")

	if wallet.BelowAlertThreshold() {
		s.log.Warn().
			Str("wallet_id", wallet.ID.String()).
			Str("balance", wallet.Balance.String()).
			Msg("wallet balance below alert threshold")
	}

	return entry, nil
}

// GetOrCreate returns the patient's wallet, creating it lazily on first use.
func (s *WalletServiceImpl) GetOrCreate(ctx context.Context, patientID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet by patient: %w", err))
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet = domain.NewWallet(patientID)
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		// A concurrent first call may have won the patient_id uniqueness
		// race; the existing wallet is the correct answer then.
		existing, getErr := s.walletRepo.GetByPatientID(ctx, patientID)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("patient_id", patientID.String()).
		Msg("wallet created")
	return wallet, nil
}

// GetByID returns a wallet by its identifier.
func (s *WalletServiceImpl) GetByID(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// Deposit adds funds to an active wallet.
func (s *WalletServiceImpl) Deposit(ctx context.Context, req ports.DepositRequest) (*domain.LedgerTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount("must be positive")
	}
	return s.apply(ctx, req.WalletID, walletOp{
		buildEntry: func(w *domain.Wallet) *domain.LedgerTransaction {
			return domain.NewDeposit(w.ID, w.Balance, req.Amount, req.Method, req.Description, req.By)
		},
	})
}

// Withdraw takes funds out of a wallet; the current balance must cover it.
func (s *WalletServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawRequest) (*domain.LedgerTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount("must be positive")
	}
	return s.apply(ctx, req.WalletID, walletOp{
		guard: func(w *domain.Wallet) error {
			if w.Balance.LessThan(req.Amount) {
				return apperror.ErrInsufficientBalance()
			}
			return nil
		},
		buildEntry: func(w *domain.Wallet) *domain.LedgerTransaction {
			return domain.NewWithdrawal(w.ID, w.Balance, req.Amount, req.Description, req.By)
		},
	})
}

// Pay settles an external record (typically an invoice) from the wallet.
// The billing flow must only mark the invoice paid after this succeeds.
func (s *WalletServiceImpl) Pay(ctx context.Context, req ports.PayRequest) (*domain.LedgerTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount("must be positive")
	}
	if req.ReferenceID == "" {
		return nil, apperror.Validation("reference_id is required for payments")
	}
	return s.apply(ctx, req.WalletID, walletOp{
		guard: func(w *domain.Wallet) error {
			if w.Balance.LessThan(req.Amount) {
				return apperror.ErrInsufficientBalance()
			}
			return nil
		},
		buildEntry: func(w *domain.Wallet) *domain.LedgerTransaction {
			ref := domain.Reference{ID: req.ReferenceID, Type: req.ReferenceType}
			return domain.NewPayment(w.ID, w.Balance, req.Amount, ref, req.Description, req.By)
		},
	})
}

// Refund returns funds to the wallet, optionally linked to the original record.
func (s *WalletServiceImpl) Refund(ctx context.Context, req ports.RefundRequest) (*domain.LedgerTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount("must be positive")
	}
	var ref *domain.Reference
	if req.ReferenceID != "" {
		ref = &domain.Reference{ID: req.ReferenceID, Type: req.ReferenceType}
	}
	return s.apply(ctx, req.WalletID, walletOp{
		buildEntry: func(w *domain.Wallet) *domain.LedgerTransaction {
			return domain.NewRefund(w.ID, w.Balance, req.Amount, ref, req.Description, req.By)
		},
	})
}

// Adjust applies a manual signed correction; the result may not go negative.
func (s *WalletServiceImpl) Adjust(ctx context.Context, req ports.AdjustRequest) (*domain.LedgerTransaction, error) {
	if req.SignedAmount.IsZero() {
		return nil, apperror.ErrInvalidAmount("must be non-zero")
	}
	return s.apply(ctx, req.WalletID, walletOp{
		guard: func(w *domain.Wallet) error {
			if w.Balance.Add(req.SignedAmount).IsNegative() {
				return apperror.ErrNegativeBalanceAdjustment()
			}
			return nil
		},
		buildEntry: func(w *domain.Wallet) *domain.LedgerTransaction {
			return domain.NewAdjustment(w.ID, w.Balance, req.SignedAmount, req.Description, req.By)
		},
	})
}

// SetActive soft-(de)activates a wallet. Wallets are never deleted.
func (s *WalletServiceImpl) SetActive(ctx context.Context, walletID uuid.UUID, active bool) error {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrNotFound("wallet")
	}
	if err := s.walletRepo.SetActive(ctx, walletID, active); err != nil {
		return apperror.InternalError(fmt.Errorf("set wallet active: %w", err))
	}
	s.log.Info().
		Str("wallet_id", walletID.String()).
		Bool("active", active).
		Msg("wallet activation changed")
	return nil
}

// ListTransactions returns filtered, paginated ledger entries.
func (s *WalletServiceImpl) ListTransactions(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerTransaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	entries, total, err := s.ledgerRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return entries, total, nil
}

// GetStats returns the wallet's running aggregates, served from a short-TTL
// cache when available since the UI polls this endpoint.
func (s *WalletServiceImpl) GetStats(ctx context.Context, walletID uuid.UUID) (*ports.WalletStats, error) {
	if s.statsCache != nil {
		if cached, err := s.statsCache.Get(ctx, walletID); err != nil {
			s.log.Warn().Err(err).Str("wallet_id", walletID.String()).Msg("stats cache read failed")
		} else if cached != nil {
			var stats ports.WalletStats
			if err := json.Unmarshal(cached, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	count, err := s.ledgerRepo.CountByOwner(ctx, domain.OwnerWallet, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count transactions: %w", err))
	}

	stats := &ports.WalletStats{
		WalletID:          wallet.ID,
		Balance:           wallet.Balance,
		TotalDeposits:     wallet.TotalDeposits,
		TotalWithdrawals:  wallet.TotalWithdrawals,
		TotalPayments:     wallet.TotalPayments,
		TotalRefunds:      wallet.TotalRefunds,
		TransactionCount:  count,
		LastTransactionAt: wallet.LastTransactionAt,
	}

	if s.statsCache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.statsCache.Set(ctx, walletID, payload, statsCacheTTL); err != nil {
				s.log.Warn().Err(err).Str("wallet_id", walletID.String()).Msg("stats cache write failed")
			}
		}
	}

	return stats, nil
}
