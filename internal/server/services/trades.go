package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/repomanager"
)

// TradeService swaps and gifts inventory entries between users.
type TradeService struct {
	repomanager repomanager.RepositoryManager
	caches      *Caches
	log         logging.Logger
	now         func() time.Time
}

func NewTradeService(m repomanager.RepositoryManager, caches *Caches, log logging.Logger) *TradeService {
	return &TradeService{repomanager: m, caches: caches, log: log, now: time.Now}
}

func requireOwner(ctx context.Context, r repomanager.Repositories, entryID int64, userID string) error {
	e, err := r.Inventory().Get(ctx, entryID)
	if err != nil {
		return err
	}
	if e.UserID != userID {
		return common.ErrForbidden
	}
	return nil
}

// Propose offers initiator's entry offered for recipient's entry requested.
func (s *TradeService) Propose(ctx context.Context, initiatorID, recipientID string, offered, requested int64) (*models.Trade, error) {
	if initiatorID == recipientID {
		return nil, common.ErrInvalidArgument
	}

	var trade *models.Trade
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := r.Users().Get(ctx, recipientID); err != nil {
			return err
		}
		if err := requireOwner(ctx, r, offered, initiatorID); err != nil {
			return err
		}
		if err := requireOwner(ctx, r, requested, recipientID); err != nil {
			return err
		}
		var err error
		trade, err = r.Trades().Create(ctx, &models.Trade{
			InitiatorID:      initiatorID,
			RecipientID:      recipientID,
			OfferedEntryID:   offered,
			RequestedEntryID: requested,
		})
		return err
	})
	if err != nil {
		return nil, classify(ctx, s.log, "trades.propose", err)
	}

	s.log.Info(ctx, "trade proposed", "trade_id", trade.ID, "from", initiatorID, "to", recipientID)
	return trade, nil
}

// Accept completes a pending trade addressed to recipientID. Either both
// entries change hands or neither does.
func (s *TradeService) Accept(ctx context.Context, recipientID string, tradeID int64) (*models.Trade, error) {
	var trade *models.Trade
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		t, err := r.Trades().Get(ctx, tradeID)
		if err != nil {
			return err
		}
		if t.RecipientID != recipientID {
			return common.ErrForbidden
		}
		if trade, err = r.Trades().Resolve(ctx, tradeID, models.TradeCompleted, s.now()); err != nil {
			return err
		}
		// either entry may have been sold or gifted since the proposal
		if err := r.Inventory().Move(ctx, t.OfferedEntryID, t.InitiatorID, t.RecipientID, models.SourceTrade); err != nil {
			return err
		}
		return r.Inventory().Move(ctx, t.RequestedEntryID, t.RecipientID, t.InitiatorID, models.SourceTrade)
	})
	if err != nil {
		return nil, classify(ctx, s.log, "trades.accept", err)
	}

	s.caches.InvalidateInventory(trade.InitiatorID, trade.RecipientID)
	s.log.Info(ctx, "trade completed", "trade_id", trade.ID)
	return trade, nil
}

// Cancel withdraws or declines a pending trade. Only its two parties may.
func (s *TradeService) Cancel(ctx context.Context, actorID string, tradeID int64) (*models.Trade, error) {
	var trade *models.Trade
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		t, err := r.Trades().Get(ctx, tradeID)
		if err != nil {
			return err
		}
		if t.InitiatorID != actorID && t.RecipientID != actorID {
			return common.ErrForbidden
		}
		trade, err = r.Trades().Resolve(ctx, tradeID, models.TradeCancelled, s.now())
		return err
	})
	if err != nil {
		return nil, classify(ctx, s.log, "trades.cancel", err)
	}
	return trade, nil
}

// ExpireStale expires pending trades older than maxAge.
func (s *TradeService) ExpireStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	now := s.now()
	n, err := s.repomanager.Repositories().Trades().ExpirePendingBefore(ctx, now.Add(-maxAge), now)
	if err != nil {
		return 0, classify(ctx, s.log, "trades.expire", err)
	}
	if n > 0 {
		s.log.Info(ctx, "trades expired", "count", n)
	}
	return n, nil
}

func (s *TradeService) ListPending(ctx context.Context, actorID string) ([]*models.Trade, error) {
	ts, err := s.repomanager.Repositories().Trades().ListPendingForUser(ctx, actorID)
	if err != nil {
		return nil, classify(ctx, s.log, "trades.list", err)
	}
	return ts, nil
}

// GiftCard hands entryID from fromID to toID.
func (s *TradeService) GiftCard(ctx context.Context, fromID, toID string, entryID int64) error {
	if fromID == toID {
		return common.ErrInvalidTransfer
	}
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := r.Users().Get(ctx, toID); err != nil {
			return err
		}
		return r.Inventory().Move(ctx, entryID, fromID, toID, models.SourceGift)
	})
	if err != nil {
		return classify(ctx, s.log, "trades.gift", err)
	}

	s.caches.InvalidateInventory(fromID, toID)
	s.log.Info(ctx, "card gifted", "from", fromID, "to", toID, "entry_id", entryID)
	return nil
}
