package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// TransferResult reports both balances after a transfer. Both ledger legs
// share OperationID.
type TransferResult struct {
	OperationID string
	FromBalance int64
	ToBalance   int64
}

// Reconciliation compares a stored balance with starting balance + Σ ledger.
type Reconciliation struct {
	Balance         int64
	StartingBalance int64
	LedgerSum       int64
}

func (r Reconciliation) Consistent() bool {
	return r.Balance == r.StartingBalance+r.LedgerSum
}

// LedgerService mutates balances. Every mutation appends one ledger entry per
// affected user in the same transaction as the balance update.
type LedgerService struct {
	repomanager repomanager.RepositoryManager
	caches      *Caches
	log         logging.Logger
}

func NewLedgerService(m repomanager.RepositoryManager, caches *Caches, log logging.Logger) *LedgerService {
	return &LedgerService{repomanager: m, caches: caches, log: log}
}

func newOperationID() string { return uuid.NewString() }

// applyDelta moves userID's balance by delta and records the entry. It must
// run inside a transaction.
func applyDelta(ctx context.Context, r repomanager.Repositories, userID string, delta int64,
	category models.LedgerCategory, reason, operationID string) (int64, error) {

	balance, err := r.Users().AddBalance(ctx, userID, delta)
	if err != nil {
		if errors.Is(err, common.ErrInsufficientFunds) {
			// the guarded update cannot tell a missing row from a low balance
			if _, gerr := r.Users().Get(ctx, userID); gerr != nil {
				return 0, gerr
			}
		}
		return 0, err
	}

	_, err = r.Ledger().Append(ctx, &models.LedgerEntry{
		UserID:      userID,
		Amount:      delta,
		Category:    category,
		Reason:      reason,
		OperationID: operationID,
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Credit adds a positive amount to actorID and returns the new balance.
func (s *LedgerService) Credit(ctx context.Context, actorID string, amount int64, category models.LedgerCategory, reason string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	return s.single(ctx, "ledger.credit", actorID, amount, category, reason)
}

// Debit subtracts a positive amount, failing with ErrInsufficientFunds rather
// than going negative.
func (s *LedgerService) Debit(ctx context.Context, actorID string, amount int64, category models.LedgerCategory, reason string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	return s.single(ctx, "ledger.debit", actorID, -amount, category, reason)
}

// Adjust applies a signed administrative correction.
func (s *LedgerService) Adjust(ctx context.Context, actorID string, delta int64, reason string) (int64, error) {
	if delta == 0 {
		return 0, common.ErrInvalidAmount
	}
	return s.single(ctx, "ledger.adjust", actorID, delta, models.CategoryAdminAdjust, reason)
}

func (s *LedgerService) single(ctx context.Context, op, actorID string, delta int64, category models.LedgerCategory, reason string) (int64, error) {
	var balance int64
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		var err error
		balance, err = applyDelta(ctx, r, actorID, delta, category, reason, newOperationID())
		return err
	})
	if err != nil {
		return 0, classify(ctx, s.log, op, err)
	}
	s.caches.InvalidateUser(actorID)
	return balance, nil
}

// transferLegs maps the category of a transfer to its debit and credit legs.
func transferLegs(category models.LedgerCategory) (debit, credit models.LedgerCategory) {
	switch category {
	case models.CategoryGift, models.CategoryGiftOut, models.CategoryGiftIn:
		return models.CategoryGiftOut, models.CategoryGiftIn
	case models.CategoryWager, models.CategoryWagerLoss, models.CategoryWagerWin:
		return models.CategoryWagerLoss, models.CategoryWagerWin
	case models.CategoryPurchase, models.CategorySale:
		return models.CategoryPurchase, models.CategorySale
	default:
		return category, category
	}
}

// Transfer debits fromID and credits toID as one unit.
func (s *LedgerService) Transfer(ctx context.Context, fromID, toID string, amount int64, category models.LedgerCategory, reason string) (*TransferResult, error) {
	if fromID == toID {
		return nil, common.ErrInvalidTransfer
	}
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	debitCat, creditCat := transferLegs(category)
	res := &TransferResult{OperationID: newOperationID()}

	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		debit := func() (err error) {
			res.FromBalance, err = applyDelta(ctx, r, fromID, -amount, debitCat, reason, res.OperationID)
			return err
		}
		credit := func() (err error) {
			res.ToBalance, err = applyDelta(ctx, r, toID, amount, creditCat, reason, res.OperationID)
			return err
		}
		// rows are always locked in id order so opposite transfers cannot deadlock
		first, second := debit, credit
		if toID < fromID {
			first, second = credit, debit
		}
		if err := first(); err != nil {
			return err
		}
		return second()
	})
	if err != nil {
		return nil, classify(ctx, s.log, "ledger.transfer", err)
	}

	s.caches.InvalidateUser(fromID, toID)
	s.log.Info(ctx, "transfer", "from", fromID, "to", toID, "amount", amount, "operation_id", res.OperationID)
	return res, nil
}

// History returns the newest ledger entries of actorID.
func (s *LedgerService) History(ctx context.Context, actorID string, limit int) ([]*models.LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	entries, err := s.repomanager.Repositories().Ledger().ListByUser(ctx, actorID, limit)
	if err != nil {
		return nil, classify(ctx, s.log, "ledger.history", err)
	}
	return entries, nil
}

// Verify checks balance = starting balance + Σ ledger for actorID and
// returns ErrLedgerMismatch (wrapped with the figures) when it does not hold.
func (s *LedgerService) Verify(ctx context.Context, actorID string) (*Reconciliation, error) {
	t, err := s.repomanager.Repositories().Ledger().Totals(ctx, actorID)
	if err != nil {
		return nil, classify(ctx, s.log, "ledger.verify", err)
	}
	rec := Reconciliation{Balance: t.Balance, StartingBalance: t.StartingBalance, LedgerSum: t.LedgerSum}
	if !rec.Consistent() {
		s.log.Warn(ctx, "ledger mismatch", "actor", actorID, "balance", rec.Balance, "starting", rec.StartingBalance, "sum", rec.LedgerSum)
		return &rec, fmt.Errorf("%w: balance %d, expected %d", common.ErrLedgerMismatch, rec.Balance, rec.StartingBalance+rec.LedgerSum)
	}
	return &rec, nil
}
