// Package engine реализует движок аукциона: последовательность лотов, приём ставок,
// обратный отсчёт и фиксацию результатов торгов.
//
// Все операции и тики таймера выполняются атомарно под одним мьютексом.
// В каждый момент времени активен не более чем один обратный отсчёт.
package engine

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/lot-auction/internal/model"
	"github.com/mmeshcher/lot-auction/internal/validation"
)

// LotSource поставляет лоты в порядке каталога.
type LotSource interface {
	List() []model.Lot
}

// Ledger описывает контракт реестра бюджетов, используемый движком.
type Ledger interface {
	CanAfford(bidderID string, amount int64) bool
	Debit(bidderID string, amount int64) (int64, error)
}

// Sink получает события движка.
// Publish не должен блокироваться и не должен синхронно вызывать команды движка.
type Sink interface {
	Publish(ev model.Event)
}

// Config содержит параметры торгов.
type Config struct {
	// LotSeconds — длительность отсчёта при открытии лота.
	LotSeconds int
	// BidExtensionSeconds — минимальный остаток времени после принятой ставки.
	BidExtensionSeconds int
	// TickInterval — период одного тика.
	TickInterval time.Duration
	// EnforceIncrement включает проверку минимального шага ставки.
	EnforceIncrement bool
}

// DefaultConfig возвращает параметры по умолчанию: 90 секунд на лот, 30 секунд после ставки.
func DefaultConfig() Config {
	return Config{
		LotSeconds:          90,
		BidExtensionSeconds: 30,
		TickInterval:        time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.LotSeconds <= 0 {
		c.LotSeconds = d.LotSeconds
	}
	if c.BidExtensionSeconds <= 0 {
		c.BidExtensionSeconds = d.BidExtensionSeconds
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	return c
}

type state struct {
	status    model.Status
	lot       *model.Lot
	resolved  bool
	bid       int64
	bidder    *model.BidderIdentity
	remaining int
	sold      []model.SoldEntry
	unsold    []model.Lot
	skipped   []model.Lot
}

// Engine — движок одного аукциона. Создаётся в состоянии idle.
type Engine struct {
	mu     sync.Mutex
	emitMu sync.Mutex

	st     state
	lots   LotSource
	ledger Ledger
	sink   Sink
	logger *zap.Logger
	cfg    Config

	gen  uint64
	stop chan struct{}
}

// New создаёт движок аукциона.
func New(lots LotSource, ledger Ledger, sink Sink, logger *zap.Logger, cfg Config) *Engine {
	if sink == nil {
		sink = nopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		st:     state{status: model.StatusIdle},
		lots:   lots,
		ledger: ledger,
		sink:   sink,
		logger: logger,
		cfg:    cfg.withDefaults(),
	}
}

type nopSink struct{}

func (nopSink) Publish(model.Event) {}

// do выполняет шаг под мьютексом состояния и доставляет события в порядке фиксации.
func (e *Engine) do(fn func() ([]model.Event, error)) error {
	e.mu.Lock()
	events, err := fn()
	e.emitMu.Lock()
	e.mu.Unlock()
	defer e.emitMu.Unlock()

	for _, ev := range events {
		e.sink.Publish(ev)
	}
	return err
}

// Start открывает первый лот каталога. Допустим только из состояния idle.
func (e *Engine) Start() error {
	return e.do(func() ([]model.Event, error) {
		if e.st.status != model.StatusIdle {
			return nil, fmt.Errorf("%w: start from %s", model.ErrInvalidTransition, e.st.status)
		}

		lot, ok := e.nextUnresolved()
		if !ok {
			return nil, model.ErrEmptyCatalog
		}

		e.openLot(lot)
		e.logger.Info("auction started", zap.String("lot_id", lot.ID), zap.Int64("base_price", lot.BasePrice))
		return nil, nil
	})
}

// PlaceBid принимает или отклоняет ставку. Отклонённая ставка не меняет состояние.
func (e *Engine) PlaceBid(bidder model.Bidder, amount int64) error {
	return e.do(func() ([]model.Event, error) {
		if err := e.checkBid(bidder, amount); err != nil {
			e.logger.Debug("bid rejected",
				zap.String("bidder_id", bidder.Identity.ID),
				zap.Int64("amount", amount),
				zap.Error(err),
			)
			return []model.Event{model.BidRejected{
				Bidder: bidder.Identity,
				Amount: amount,
				Reason: model.RejectReason(err),
			}}, err
		}

		identity := bidder.Identity
		e.st.bid = amount
		e.st.bidder = &identity
		if e.st.remaining < e.cfg.BidExtensionSeconds {
			e.st.remaining = e.cfg.BidExtensionSeconds
		}

		e.logger.Info("bid accepted",
			zap.String("lot_id", e.st.lot.ID),
			zap.String("bidder_id", identity.ID),
			zap.Int64("amount", amount),
			zap.Int("time_remaining", e.st.remaining),
		)
		return []model.Event{model.BidAccepted{Bidder: identity, Amount: amount, Lot: *e.st.lot}}, nil
	})
}

func (e *Engine) checkBid(bidder model.Bidder, amount int64) error {
	if !bidder.CanBid {
		return fmt.Errorf("%w: %s", model.ErrNotAuthorized, bidder.Identity.ID)
	}
	if !e.ledger.CanAfford(bidder.Identity.ID, amount) {
		return fmt.Errorf("%w: bid %d", model.ErrInsufficientBudget, amount)
	}
	if e.st.status != model.StatusRunning || e.st.lot == nil || e.st.resolved {
		return fmt.Errorf("%w: status %s", model.ErrAuctionNotActive, e.st.status)
	}

	if e.st.bidder == nil {
		if amount < e.st.bid {
			return fmt.Errorf("%w: opening bid %d below base price %d", model.ErrBidTooLow, amount, e.st.bid)
		}
		return nil
	}
	if amount <= e.st.bid {
		return fmt.Errorf("%w: %d does not exceed current bid %d", model.ErrBidTooLow, amount, e.st.bid)
	}
	if e.cfg.EnforceIncrement {
		if minimum := e.st.bid + validation.MinIncrement(e.st.bid); amount < minimum {
			return fmt.Errorf("%w: %d below minimum %d", model.ErrBidTooLow, amount, minimum)
		}
	}
	return nil
}

// Pause останавливает отсчёт. Ставка, лидер и остаток времени не меняются.
func (e *Engine) Pause() error {
	return e.do(func() ([]model.Event, error) {
		if e.st.status != model.StatusRunning {
			return nil, fmt.Errorf("%w: pause from %s", model.ErrInvalidTransition, e.st.status)
		}
		e.stopCountdown()
		e.st.status = model.StatusPaused
		e.logger.Info("auction paused", zap.Int("time_remaining", e.st.remaining))
		return nil, nil
	})
}

// Resume продолжает отсчёт с текущего остатка времени.
// Лот, по которому уже зафиксирован результат, продолжить нельзя.
func (e *Engine) Resume() error {
	return e.do(func() ([]model.Event, error) {
		if e.st.status != model.StatusPaused || e.st.lot == nil || e.st.resolved {
			return nil, fmt.Errorf("%w: resume from %s", model.ErrInvalidTransition, e.st.status)
		}
		e.st.status = model.StatusRunning
		e.armCountdown()
		e.logger.Info("auction resumed", zap.Int("time_remaining", e.st.remaining))
		return nil, nil
	})
}

// NextLot открывает следующий лот без результата. Незавершённый текущий лот
// снимается с торгов и попадает в список пропущенных. Если лотов не осталось,
// аукцион завершается.
func (e *Engine) NextLot() error {
	return e.do(func() ([]model.Event, error) {
		if e.st.status != model.StatusRunning && e.st.status != model.StatusPaused {
			return nil, fmt.Errorf("%w: next lot from %s", model.ErrInvalidTransition, e.st.status)
		}
		e.stopCountdown()

		if e.st.lot != nil && !e.st.resolved {
			e.st.skipped = append(e.st.skipped, *e.st.lot)
			e.logger.Info("lot skipped", zap.String("lot_id", e.st.lot.ID))
		}

		lot, ok := e.nextUnresolved()
		if !ok {
			return e.complete(), nil
		}

		e.openLot(lot)
		e.logger.Info("next lot opened", zap.String("lot_id", lot.ID), zap.Int64("base_price", lot.BasePrice))
		return nil, nil
	})
}

// End завершает аукцион, сохраняя проданные и непроданные лоты.
func (e *Engine) End() error {
	return e.do(func() ([]model.Event, error) {
		if e.st.status != model.StatusRunning && e.st.status != model.StatusPaused {
			return nil, fmt.Errorf("%w: end from %s", model.ErrInvalidTransition, e.st.status)
		}
		return e.complete(), nil
	})
}

// Snapshot возвращает копию текущего состояния.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := model.Snapshot{
		Status:        e.st.status,
		LotResolved:   e.st.resolved,
		CurrentBid:    e.st.bid,
		TimeRemaining: e.st.remaining,
		Sold:          append([]model.SoldEntry(nil), e.st.sold...),
		Unsold:        append([]model.Lot(nil), e.st.unsold...),
		Skipped:       append([]model.Lot(nil), e.st.skipped...),
	}
	if e.st.lot != nil {
		lot := *e.st.lot
		s.CurrentLot = &lot
	}
	if e.st.bidder != nil {
		bidder := *e.st.bidder
		s.CurrentBidder = &bidder
	}
	return s
}

// Close останавливает обратный отсчёт. Состояние аукциона не меняется.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopCountdown()
}

func (e *Engine) openLot(lot model.Lot) {
	e.st.lot = &lot
	e.st.resolved = false
	e.st.bid = lot.BasePrice
	e.st.bidder = nil
	e.st.remaining = e.cfg.LotSeconds
	e.st.status = model.StatusRunning
	e.armCountdown()
}

func (e *Engine) complete() []model.Event {
	e.stopCountdown()
	e.st.status = model.StatusCompleted
	e.st.lot = nil
	e.st.resolved = false
	e.st.bid = 0
	e.st.bidder = nil
	e.st.remaining = 0

	e.logger.Info("auction completed", zap.Int("sold", len(e.st.sold)), zap.Int("unsold", len(e.st.unsold)))
	return []model.Event{model.AuctionCompleted{SoldCount: len(e.st.sold), UnsoldCount: len(e.st.unsold)}}
}

// nextUnresolved возвращает первый лот каталога, который не продан, не остался без ставок,
// не пропущен и не является текущим.
func (e *Engine) nextUnresolved() (model.Lot, bool) {
	seen := make(map[string]struct{}, len(e.st.sold)+len(e.st.unsold)+len(e.st.skipped)+1)
	for _, s := range e.st.sold {
		seen[s.Lot.ID] = struct{}{}
	}
	for _, l := range e.st.unsold {
		seen[l.ID] = struct{}{}
	}
	for _, l := range e.st.skipped {
		seen[l.ID] = struct{}{}
	}
	if e.st.lot != nil {
		seen[e.st.lot.ID] = struct{}{}
	}

	for _, l := range e.lots.List() {
		if _, ok := seen[l.ID]; !ok {
			return l, true
		}
	}
	return model.Lot{}, false
}
