package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/lot-auction/internal/model"
	"github.com/mmeshcher/lot-auction/internal/repository"
)

const (
	archiveQueueSize = 256
	archiveTimeout   = 5 * time.Second
)

// Archiver получает события движка и в фоне записывает результаты торгов в журнал.
type Archiver struct {
	store     ResultStore
	auctionID string
	logger    *zap.Logger
	queue     chan model.LotResult
	now       func() time.Time
}

// NewArchiver создаёт архиватор результатов для указанного аукциона.
func NewArchiver(store ResultStore, auctionID string, logger *zap.Logger) *Archiver {
	return &Archiver{
		store:     store,
		auctionID: auctionID,
		logger:    logger.Named("archive"),
		queue:     make(chan model.LotResult, archiveQueueSize),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Publish ставит результат торгов в очередь записи. Остальные события игнорируются.
func (a *Archiver) Publish(ev model.Event) {
	var res model.LotResult

	switch e := ev.(type) {
	case model.LotSold:
		bidder := e.Bidder
		res = model.LotResult{Lot: e.Lot, Outcome: model.OutcomeSold, Amount: e.Amount, Bidder: &bidder}
	case model.LotUnsold:
		res = model.LotResult{Lot: e.Lot, Outcome: model.OutcomeUnsold}
	default:
		return
	}
	res.AuctionID = a.auctionID
	res.ResolvedAt = a.now()

	select {
	case a.queue <- res:
	default:
		a.logger.Error("archive queue full, result dropped", zap.String("lot_id", res.Lot.ID))
	}
}

// Run записывает результаты из очереди до отмены контекста, после чего дописывает остаток.
func (a *Archiver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			a.drain()
			return nil
		case res := <-a.queue:
			a.save(ctx, res)
		}
	}
}

func (a *Archiver) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	for {
		select {
		case res := <-a.queue:
			a.save(ctx, res)
		default:
			return
		}
	}
}

func (a *Archiver) save(ctx context.Context, res model.LotResult) {
	err := a.store.SaveLotResult(ctx, res)
	switch {
	case err == nil:
		a.logger.Debug("result archived", zap.String("lot_id", res.Lot.ID), zap.String("outcome", string(res.Outcome)))
	case errors.Is(err, repository.ErrResultExists):
		a.logger.Warn("result already archived", zap.String("lot_id", res.Lot.ID))
	default:
		a.logger.Error("archive result", zap.String("lot_id", res.Lot.ID), zap.Error(err))
	}
}
