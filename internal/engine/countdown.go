package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/lot-auction/internal/model"
)

// armCountdown отменяет текущий отсчёт и запускает новый. Вызывается под e.mu.
func (e *Engine) armCountdown() {
	e.stopCountdown()

	gen := e.gen
	stop := make(chan struct{})
	e.stop = stop

	ticker := time.NewTicker(e.cfg.TickInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.tick(gen)
			}
		}
	}()
}

// stopCountdown отменяет текущий отсчёт, если он есть, и делает устаревшими
// тики, которые уже ждут мьютекс. Вызывается под e.mu.
func (e *Engine) stopCountdown() {
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
	e.gen++
}

// tick уменьшает остаток времени на секунду. Тик устаревшего отсчёта игнорируется.
func (e *Engine) tick(gen uint64) {
	_ = e.do(func() ([]model.Event, error) {
		if gen != e.gen || e.st.status != model.StatusRunning {
			return nil, nil
		}

		e.st.remaining--
		if e.st.remaining > 0 {
			return nil, nil
		}
		return e.resolve(), nil
	})
}

// resolve фиксирует результат по текущему лоту и ставит аукцион на паузу.
// Переход к следующему лоту выполняется только явной командой.
func (e *Engine) resolve() []model.Event {
	e.stopCountdown()

	lot := *e.st.lot
	e.st.status = model.StatusPaused
	e.st.remaining = 0
	e.st.resolved = true

	if e.st.bidder == nil {
		e.st.unsold = append(e.st.unsold, lot)
		e.logger.Info("lot unsold", zap.String("lot_id", lot.ID))
		return []model.Event{model.LotUnsold{Lot: lot}}
	}

	bidder := *e.st.bidder
	balance, err := e.ledger.Debit(bidder.ID, e.st.bid)
	if err != nil {
		e.logger.Error("debit winning bid",
			zap.String("lot_id", lot.ID),
			zap.String("bidder_id", bidder.ID),
			zap.Int64("amount", e.st.bid),
			zap.Error(err),
		)
		e.st.unsold = append(e.st.unsold, lot)
		return []model.Event{model.LotUnsold{Lot: lot}}
	}

	e.st.sold = append(e.st.sold, model.SoldEntry{Lot: lot, Amount: e.st.bid, Bidder: bidder})
	e.logger.Info("lot sold",
		zap.String("lot_id", lot.ID),
		zap.String("bidder_id", bidder.ID),
		zap.Int64("amount", e.st.bid),
		zap.Int64("balance", balance),
	)
	return []model.Event{model.LotSold{Lot: lot, Amount: e.st.bid, Bidder: bidder}}
}
