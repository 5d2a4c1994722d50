// Package service реализует прикладную логику аукциона: участников, каталог и управление торгами.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/lot-auction/internal/catalog"
	"github.com/mmeshcher/lot-auction/internal/model"
	"github.com/mmeshcher/lot-auction/internal/validation"
)

// ErrArchiveDisabled возвращается, если журнал результатов не настроен.
var ErrArchiveDisabled = errors.New("result archive disabled")

const importAttempts = 3

// Engine описывает контракт движка аукциона, используемый сервисом.
type Engine interface {
	Start() error
	PlaceBid(bidder model.Bidder, amount int64) error
	Pause() error
	Resume() error
	NextLot() error
	End() error
	Snapshot() model.Snapshot
}

// Catalog описывает контракт каталога лотов.
type Catalog interface {
	AddLot(spec model.LotSpec) (model.Lot, error)
	List() []model.Lot
}

// Ledger описывает контракт реестра бюджетов.
type Ledger interface {
	Register(bidderID string, capacity int64) error
	RemainingCapacity(bidderID string) (int64, error)
}

// ResultStore описывает контракт журнала результатов торгов.
type ResultStore interface {
	Close() error
	SaveLotResult(ctx context.Context, res model.LotResult) error
	ListLotResults(ctx context.Context, auctionID string) ([]model.LotResult, error)
}

// LotFeed описывает источник лотов для импорта.
type LotFeed interface {
	FetchLots(ctx context.Context) ([]model.LotSpec, int, time.Duration, error)
}

// Deps содержит зависимости сервиса. Store и Feed необязательны.
type Deps struct {
	Engine    Engine
	Catalog   Catalog
	Ledger    Ledger
	Store     ResultStore
	Feed      LotFeed
	Logger    *zap.Logger
	Budget    int64
	AuctionID string
}

// LotQuery задаёт параметры просмотра каталога.
type LotQuery struct {
	Search string
	Role   string
	Sort   catalog.SortDirection
}

// Service содержит бизнес-логику аукциона.
type Service struct {
	engine    Engine
	catalog   Catalog
	ledger    Ledger
	store     ResultStore
	feed      LotFeed
	logger    *zap.Logger
	budget    int64
	auctionID string

	mu           sync.RWMutex
	participants map[string]model.Participant
}

// NewService создаёт сервис с указанными зависимостями.
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:       d.Engine,
		catalog:      d.Catalog,
		ledger:       d.Ledger,
		store:        d.Store,
		feed:         d.Feed,
		logger:       logger,
		budget:       d.Budget,
		auctionID:    d.AuctionID,
		participants: make(map[string]model.Participant),
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// RegisterParticipant регистрирует участника. Владельцу команды назначается фиксированный бюджет.
func (s *Service) RegisterParticipant(ctx context.Context, name, team string, role model.Role) (model.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Participant{}, &validation.FieldError{Field: "name", Reason: "is required"}
	}
	switch role {
	case model.RoleAdmin, model.RoleTeamOwner, model.RoleViewer:
	default:
		return model.Participant{}, &validation.FieldError{Field: "role", Reason: "is unknown"}
	}

	p := model.Participant{
		BidderIdentity: model.BidderIdentity{ID: uuid.NewString(), Name: name},
		Role:           role,
	}

	if role == model.RoleTeamOwner {
		p.Team = strings.TrimSpace(team)
		if p.Team == "" {
			p.Team = name + "'s Team"
		}
		if err := s.ledger.Register(p.ID, s.budget); err != nil {
			return model.Participant{}, fmt.Errorf("register budget: %w", err)
		}
	}

	s.mu.Lock()
	s.participants[p.ID] = p
	s.mu.Unlock()

	s.logger.Info("participant registered", zap.String("id", p.ID), zap.String("role", string(role)))
	return p, nil
}

// Participant возвращает участника по идентификатору.
func (s *Service) Participant(ctx context.Context, id string) (model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[id]
	if !ok {
		return model.Participant{}, fmt.Errorf("%w: %s", model.ErrUnknownBidder, id)
	}
	return p, nil
}

// Balance возвращает остаток бюджета участника. У участников без права ставок бюджет нулевой.
func (s *Service) Balance(ctx context.Context, id string) (int64, error) {
	p, err := s.Participant(ctx, id)
	if err != nil {
		return 0, err
	}
	if !p.CanBid() {
		return 0, nil
	}
	return s.ledger.RemainingCapacity(id)
}

// AddLot добавляет лот в каталог.
func (s *Service) AddLot(ctx context.Context, spec model.LotSpec) (model.Lot, error) {
	lot, err := s.catalog.AddLot(spec)
	if err != nil {
		return model.Lot{}, err
	}
	s.logger.Info("lot added", zap.String("lot_id", lot.ID), zap.String("name", lot.Name))
	return lot, nil
}

// Lots возвращает лоты каталога с учётом фильтра по роли, поиска и сортировки.
func (s *Service) Lots(ctx context.Context, q LotQuery) []model.Lot {
	lots := catalog.FilterByRole(s.catalog.List(), q.Role)
	lots = catalog.Search(lots, q.Search)
	if q.Sort != "" {
		lots = catalog.SortByPrice(lots, q.Sort)
	}
	return lots
}

// State возвращает снимок состояния аукциона.
func (s *Service) State(ctx context.Context) model.Snapshot {
	return s.engine.Snapshot()
}

// Start запускает аукцион.
func (s *Service) Start(ctx context.Context) error { return s.engine.Start() }

// Pause приостанавливает торги.
func (s *Service) Pause(ctx context.Context) error { return s.engine.Pause() }

// Resume возобновляет торги.
func (s *Service) Resume(ctx context.Context) error { return s.engine.Resume() }

// NextLot переходит к следующему лоту.
func (s *Service) NextLot(ctx context.Context) error { return s.engine.NextLot() }

// End завершает аукцион.
func (s *Service) End(ctx context.Context) error { return s.engine.End() }

// PlaceBid делает ставку от имени участника.
func (s *Service) PlaceBid(ctx context.Context, participantID string, amount int64) error {
	p, err := s.Participant(ctx, participantID)
	if err != nil {
		return err
	}
	return s.engine.PlaceBid(model.Bidder{Identity: p.BidderIdentity, CanBid: p.CanBid()}, amount)
}

// History возвращает результаты торгов текущего аукциона из журнала.
func (s *Service) History(ctx context.Context) ([]model.LotResult, error) {
	if s.store == nil {
		return nil, ErrArchiveDisabled
	}
	return s.store.ListLotResults(ctx, s.auctionID)
}

// ImportCatalog загружает лоты из внешнего каталога. Некорректные лоты пропускаются.
func (s *Service) ImportCatalog(ctx context.Context) (int, error) {
	if s.feed == nil {
		return 0, nil
	}

	for attempt := 1; attempt <= importAttempts; attempt++ {
		specs, statusCode, retryAfter, err := s.feed.FetchLots(ctx)
		if err != nil {
			return 0, fmt.Errorf("fetch lots: %w", err)
		}

		if statusCode == http.StatusTooManyRequests {
			s.logger.Warn("catalog feed rate limited", zap.Int("attempt", attempt), zap.Duration("retry_after", retryAfter))
			if retryAfter > 0 {
				timer := time.NewTimer(retryAfter)
				select {
				case <-ctx.Done():
					timer.Stop()
					return 0, ctx.Err()
				case <-timer.C:
				}
			}
			continue
		}

		imported := 0
		for _, spec := range specs {
			if _, err := s.catalog.AddLot(spec); err != nil {
				s.logger.Warn("skip invalid lot", zap.String("name", spec.Name), zap.Error(err))
				continue
			}
			imported++
		}
		s.logger.Info("catalog imported", zap.Int("lots", imported))
		return imported, nil
	}

	return 0, fmt.Errorf("fetch lots: rate limited after %d attempts", importAttempts)
}
