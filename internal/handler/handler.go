// Package handler содержит HTTP-обработчики API сервиса аукциона.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/lot-auction/internal/catalog"
	"github.com/mmeshcher/lot-auction/internal/middleware"
	"github.com/mmeshcher/lot-auction/internal/model"
	"github.com/mmeshcher/lot-auction/internal/service"
	"github.com/mmeshcher/lot-auction/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterParticipant(ctx context.Context, name, team string, role model.Role) (model.Participant, error)
	Participant(ctx context.Context, id string) (model.Participant, error)
	Balance(ctx context.Context, id string) (int64, error)
	AddLot(ctx context.Context, spec model.LotSpec) (model.Lot, error)
	Lots(ctx context.Context, q service.LotQuery) []model.Lot
	State(ctx context.Context) model.Snapshot
	Start(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	NextLot(ctx context.Context) error
	End(ctx context.Context) error
	PlaceBid(ctx context.Context, participantID string, amount int64) error
	History(ctx context.Context) ([]model.LotResult, error)
}

// Handler реализует HTTP-обработчики API сервиса аукциона.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	bidLimiter     *bidLimiter
	events         http.Handler
	metrics        http.Handler
}

// Option настраивает необязательные части обработчика.
type Option func(*Handler)

// WithEvents подключает поток событий аукциона по websocket.
func WithEvents(events http.Handler) Option {
	return func(h *Handler) { h.events = events }
}

// WithMetrics подключает эндпоинт метрик Prometheus.
func WithMetrics(metrics http.Handler) Option {
	return func(h *Handler) { h.metrics = metrics }
}

// WithBidLimit задаёт ограничение частоты ставок одного участника.
func WithBidLimit(perSecond float64, burst int) Option {
	return func(h *Handler) { h.bidLimiter = newBidLimiter(perSecond, burst) }
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, opts ...Option) *Handler {
	h := &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		bidLimiter:     newBidLimiter(defaultBidsPerSecond, defaultBidBurst),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type registerRequest struct {
	Name string     `json:"name"`
	Team string     `json:"team"`
	Role model.Role `json:"role"`
}

type participantResponse struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Team    string     `json:"team,omitempty"`
	Role    model.Role `json:"role"`
	Balance int64      `json:"balance"`
}

// Register регистрирует участника и устанавливает cookie авторизации.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	p, err := h.service.RegisterParticipant(r.Context(), req.Name, req.Team, req.Role)
	if err != nil {
		h.writeError(w, "register participant", err)
		return
	}

	balance, err := h.service.Balance(r.Context(), p.ID)
	if err != nil {
		h.writeError(w, "get balance", err)
		return
	}

	h.authMiddleware.SetAuthCookie(w, p.ID)
	writeJSON(w, http.StatusCreated, toParticipantResponse(p, balance))
}

// Me возвращает текущего участника и остаток его бюджета.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentParticipant(w, r)
	if !ok {
		return
	}

	balance, err := h.service.Balance(r.Context(), p.ID)
	if err != nil {
		h.writeError(w, "get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, toParticipantResponse(p, balance))
}

// GetLots возвращает каталог с учётом поиска, фильтра по роли и сортировки по цене.
func (h *Handler) GetLots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := service.LotQuery{
		Search: q.Get("q"),
		Role:   q.Get("role"),
	}
	switch sort := strings.ToLower(q.Get("sort")); sort {
	case "":
	case string(catalog.SortAsc), string(catalog.SortDesc):
		query.Sort = catalog.SortDirection(sort)
	default:
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	lots := h.service.Lots(r.Context(), query)
	if lots == nil {
		lots = []model.Lot{}
	}
	writeJSON(w, http.StatusOK, lots)
}

// AddLot добавляет лот в каталог.
func (h *Handler) AddLot(w http.ResponseWriter, r *http.Request) {
	var spec model.LotSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	lot, err := h.service.AddLot(r.Context(), spec)
	if err != nil {
		h.writeError(w, "add lot", err)
		return
	}

	writeJSON(w, http.StatusCreated, lot)
}

type snapshotResponse struct {
	Status         model.Status          `json:"status"`
	CurrentLot     *model.Lot            `json:"currentLot"`
	LotResolved    bool                  `json:"lotResolved"`
	CurrentBid     int64                 `json:"currentBid"`
	CurrentBidder  *model.BidderIdentity `json:"currentBidder"`
	TimeRemaining  int                   `json:"timeRemaining"`
	NextMinimumBid int64                 `json:"nextMinimumBid,omitempty"`
	Sold           []model.SoldEntry     `json:"sold"`
	Unsold         []model.Lot           `json:"unsold"`
	Skipped        []model.Lot           `json:"skipped"`
}

func toSnapshotResponse(s model.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		Status:        s.Status,
		CurrentLot:    s.CurrentLot,
		LotResolved:   s.LotResolved,
		CurrentBid:    s.CurrentBid,
		CurrentBidder: s.CurrentBidder,
		TimeRemaining: s.TimeRemaining,
		Sold:          s.Sold,
		Unsold:        s.Unsold,
		Skipped:       s.Skipped,
	}

	if s.CurrentLot != nil && !s.LotResolved {
		if s.CurrentBidder == nil {
			resp.NextMinimumBid = s.CurrentBid
		} else {
			resp.NextMinimumBid = s.CurrentBid + validation.MinIncrement(s.CurrentBid)
		}
	}

	if resp.Sold == nil {
		resp.Sold = []model.SoldEntry{}
	}
	if resp.Unsold == nil {
		resp.Unsold = []model.Lot{}
	}
	if resp.Skipped == nil {
		resp.Skipped = []model.Lot{}
	}
	return resp
}

// GetState возвращает снимок состояния аукциона.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.service.State(r.Context())))
}

// command оборачивает управляющую команду аукциона: при успехе возвращает новый снимок.
func (h *Handler) command(name string, fn func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(r.Context()); err != nil {
			h.writeError(w, name, err)
			return
		}
		h.logger.Info("auction command", zap.String("command", name))
		writeJSON(w, http.StatusOK, toSnapshotResponse(h.service.State(r.Context())))
	}
}

type bidRequest struct {
	Amount int64 `json:"amount"`
}

// PlaceBid принимает ставку текущего участника по текущему лоту.
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	participantID, ok := middleware.GetParticipantIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if !h.bidLimiter.Allow(participantID) {
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}

	var req bidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Amount <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.PlaceBid(r.Context(), participantID, req.Amount); err != nil {
		h.writeError(w, "place bid", err)
		return
	}

	writeJSON(w, http.StatusOK, toSnapshotResponse(h.service.State(r.Context())))
}

type lotResultResponse struct {
	Lot        model.Lot             `json:"lot"`
	Outcome    model.Outcome         `json:"outcome"`
	Amount     int64                 `json:"amount,omitempty"`
	Bidder     *model.BidderIdentity `json:"bidder,omitempty"`
	ResolvedAt string                `json:"resolvedAt"`
}

// GetHistory возвращает журнал результатов текущего аукциона.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.History(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrArchiveDisabled) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.writeError(w, "get history", err)
		return
	}

	if len(results) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]lotResultResponse, 0, len(results))
	for _, res := range results {
		resp = append(resp, lotResultResponse{
			Lot:        res.Lot,
			Outcome:    res.Outcome,
			Amount:     res.Amount,
			Bidder:     res.Bidder,
			ResolvedAt: res.ResolvedAt.Format(timeLayout),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Events подключает участника к потоку событий аукциона.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	h.events.ServeHTTP(w, r)
}

// requireAdmin пропускает только участников с ролью администратора.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.currentParticipant(w, r)
		if !ok {
			return
		}
		if p.Role != model.RoleAdmin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) currentParticipant(w http.ResponseWriter, r *http.Request) (model.Participant, bool) {
	participantID, ok := middleware.GetParticipantIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return model.Participant{}, false
	}

	p, err := h.service.Participant(r.Context(), participantID)
	if err != nil {
		// cookie подписан, но участник неизвестен: например, после перезапуска
		if errors.Is(err, model.ErrUnknownBidder) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return model.Participant{}, false
		}
		h.writeError(w, "get participant", err)
		return model.Participant{}, false
	}
	return p, true
}

func toParticipantResponse(p model.Participant, balance int64) participantResponse {
	return participantResponse{
		ID:      p.ID,
		Name:    p.Name,
		Team:    p.Team,
		Role:    p.Role,
		Balance: balance,
	}
}
