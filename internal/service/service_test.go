package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/lot-auction/internal/catalog"
	"github.com/mmeshcher/lot-auction/internal/engine"
	"github.com/mmeshcher/lot-auction/internal/ledger"
	"github.com/mmeshcher/lot-auction/internal/model"
	"github.com/mmeshcher/lot-auction/internal/repository"
)

const testBudget = 10_000_000

type stubStore struct {
	mu      sync.Mutex
	saved   []model.LotResult
	saveErr error

	listResp []model.LotResult
	listErr  error
}

func (s *stubStore) Close() error { return nil }

func (s *stubStore) SaveLotResult(ctx context.Context, res model.LotResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, res)
	return nil
}

func (s *stubStore) ListLotResults(ctx context.Context, auctionID string) ([]model.LotResult, error) {
	return s.listResp, s.listErr
}

func (s *stubStore) Saved() []model.LotResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.LotResult(nil), s.saved...)
}

type feedResponse struct {
	lots       []model.LotSpec
	statusCode int
	retryAfter time.Duration
	err        error
}

type stubFeed struct {
	responses []feedResponse
	calls     int
}

func (f *stubFeed) FetchLots(ctx context.Context) ([]model.LotSpec, int, time.Duration, error) {
	r := f.responses[f.calls]
	if f.calls < len(f.responses)-1 {
		f.calls++
	}
	return r.lots, r.statusCode, r.retryAfter, r.err
}

func newTestService(t *testing.T, d Deps, lots ...model.Lot) *Service {
	t.Helper()

	cat := catalog.New(lots...)
	l := ledger.New()
	e := engine.New(cat, l, nil, zap.NewNop(), engine.Config{TickInterval: time.Hour})
	t.Cleanup(e.Close)

	d.Engine, d.Catalog, d.Ledger = e, cat, l
	if d.Budget == 0 {
		d.Budget = testBudget
	}
	return NewService(d)
}

func TestRegisterParticipant_TeamOwnerGetsBudget(t *testing.T) {
	svc := newTestService(t, Deps{})
	ctx := context.Background()

	p, err := svc.RegisterParticipant(ctx, "Mumbai", "", model.RoleTeamOwner)
	if err != nil {
		t.Fatalf("RegisterParticipant error: %v", err)
	}
	if p.Team != "Mumbai's Team" {
		t.Fatalf("Team = %q, want default team name", p.Team)
	}

	balance, err := svc.Balance(ctx, p.ID)
	if err != nil {
		t.Fatalf("Balance error: %v", err)
	}
	if balance != testBudget {
		t.Fatalf("Balance = %d, want %d", balance, testBudget)
	}
}

func TestRegisterParticipant_Validation(t *testing.T) {
	svc := newTestService(t, Deps{})

	if _, err := svc.RegisterParticipant(context.Background(), " ", "", model.RoleViewer); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty name, got %v", err)
	}
	if _, err := svc.RegisterParticipant(context.Background(), "x", "", "player"); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role, got %v", err)
	}
}

func TestBalance_ViewerHasNoBudget(t *testing.T) {
	svc := newTestService(t, Deps{})
	ctx := context.Background()

	p, err := svc.RegisterParticipant(ctx, "Fan", "", model.RoleViewer)
	if err != nil {
		t.Fatalf("RegisterParticipant error: %v", err)
	}

	balance, err := svc.Balance(ctx, p.ID)
	if err != nil || balance != 0 {
		t.Fatalf("Balance = %d, %v; want 0, nil", balance, err)
	}

	if _, err := svc.Balance(ctx, "missing"); !errors.Is(err, model.ErrUnknownBidder) {
		t.Fatalf("expected ErrUnknownBidder, got %v", err)
	}
}

func TestPlaceBid_UsesParticipantCapability(t *testing.T) {
	svc := newTestService(t, Deps{}, catalog.SeedLots()...)
	ctx := context.Background()

	owner, _ := svc.RegisterParticipant(ctx, "Owner", "Chennai XI", model.RoleTeamOwner)
	admin, _ := svc.RegisterParticipant(ctx, "Admin", "", model.RoleAdmin)

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	if err := svc.PlaceBid(ctx, admin.ID, 2_200_000); !errors.Is(err, model.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for admin, got %v", err)
	}
	if err := svc.PlaceBid(ctx, "missing", 2_200_000); !errors.Is(err, model.ErrUnknownBidder) {
		t.Fatalf("expected ErrUnknownBidder, got %v", err)
	}
	if err := svc.PlaceBid(ctx, owner.ID, 2_200_000); err != nil {
		t.Fatalf("PlaceBid error: %v", err)
	}

	state := svc.State(ctx)
	if state.CurrentBidder == nil || state.CurrentBidder.Label() != "Chennai XI" {
		t.Fatalf("unexpected bidder: %+v", state.CurrentBidder)
	}
}

func TestLots_FilterSearchSort(t *testing.T) {
	svc := newTestService(t, Deps{}, catalog.SeedLots()...)

	lots := svc.Lots(context.Background(), LotQuery{Role: "bowler", Search: "", Sort: catalog.SortDesc})
	if len(lots) != 2 {
		t.Fatalf("len(lots) = %d, want 2", len(lots))
	}
	if lots[0].Name != "Rashid Khan" || lots[1].Name != "Jasprit Bumrah" {
		t.Fatalf("unexpected order: %s, %s", lots[0].Name, lots[1].Name)
	}

	lots = svc.Lots(context.Background(), LotQuery{Search: "zealand"})
	if len(lots) != 1 || lots[0].Name != "Kane Williamson" {
		t.Fatalf("unexpected search result: %+v", lots)
	}
}

func TestHistory(t *testing.T) {
	svc := newTestService(t, Deps{})
	if _, err := svc.History(context.Background()); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("expected ErrArchiveDisabled, got %v", err)
	}

	store := &stubStore{listResp: []model.LotResult{{Outcome: model.OutcomeUnsold}}}
	svc = newTestService(t, Deps{Store: store, AuctionID: "run-1"})
	res, err := svc.History(context.Background())
	if err != nil || len(res) != 1 {
		t.Fatalf("History = %+v, %v", res, err)
	}
}

func TestImportCatalog(t *testing.T) {
	feed := &stubFeed{responses: []feedResponse{
		{statusCode: http.StatusTooManyRequests, retryAfter: time.Millisecond},
		{statusCode: http.StatusOK, lots: []model.LotSpec{
			{Name: "Pat Cummins", Country: "Australia", BasePrice: 1_900_000, Stats: model.Stats{Matches: 88}},
			{Name: "No Price", Country: "Australia", Stats: model.Stats{Matches: 1}},
		}},
	}}
	svc := newTestService(t, Deps{Feed: feed})

	n, err := svc.ImportCatalog(context.Background())
	if err != nil {
		t.Fatalf("ImportCatalog error: %v", err)
	}
	if n != 1 {
		t.Fatalf("imported = %d, want 1", n)
	}
	if lots := svc.Lots(context.Background(), LotQuery{}); len(lots) != 1 || lots[0].Name != "Pat Cummins" {
		t.Fatalf("unexpected catalog: %+v", lots)
	}
}

func TestImportCatalog_GivesUpWhenRateLimited(t *testing.T) {
	feed := &stubFeed{responses: []feedResponse{{statusCode: http.StatusTooManyRequests}}}
	svc := newTestService(t, Deps{Feed: feed})

	if _, err := svc.ImportCatalog(context.Background()); err == nil {
		t.Fatalf("expected error after repeated 429")
	}
}

func TestImportCatalog_NoFeed(t *testing.T) {
	svc := newTestService(t, Deps{})

	n, err := svc.ImportCatalog(context.Background())
	if n != 0 || err != nil {
		t.Fatalf("ImportCatalog = %d, %v; want 0, nil", n, err)
	}
}

func TestArchiver_SavesResolutions(t *testing.T) {
	store := &stubStore{}
	a := NewArchiver(store, "run-1", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = a.Run(ctx)
		close(done)
	}()

	lot := model.Lot{ID: "1"}
	a.Publish(model.BidAccepted{Lot: lot, Amount: 5})
	a.Publish(model.LotSold{Lot: lot, Amount: 2_000_000, Bidder: model.BidderIdentity{ID: "b1"}})
	a.Publish(model.LotUnsold{Lot: model.Lot{ID: "2"}})

	deadline := time.Now().Add(time.Second)
	for len(store.Saved()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("results not archived: %+v", store.Saved())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done

	saved := store.Saved()
	if len(saved) != 2 {
		t.Fatalf("saved %d results, want 2", len(saved))
	}
	if saved[0].Outcome != model.OutcomeSold || saved[0].Amount != 2_000_000 || saved[0].Bidder.ID != "b1" {
		t.Fatalf("unexpected sold result: %+v", saved[0])
	}
	if saved[1].Outcome != model.OutcomeUnsold || saved[1].AuctionID != "run-1" {
		t.Fatalf("unexpected unsold result: %+v", saved[1])
	}
}

func TestArchiver_DrainsOnShutdown(t *testing.T) {
	store := &stubStore{}
	a := NewArchiver(store, "run-1", zap.NewNop())

	a.Publish(model.LotUnsold{Lot: model.Lot{ID: "1"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(store.Saved()) != 1 {
		t.Fatalf("expected queued result to be drained")
	}
}

func TestArchiver_IgnoresDuplicates(t *testing.T) {
	store := &stubStore{saveErr: repository.ErrResultExists}
	a := NewArchiver(store, "run-1", zap.NewNop())

	a.save(context.Background(), model.LotResult{Lot: model.Lot{ID: "1"}})

	if len(store.Saved()) != 0 {
		t.Fatalf("duplicate must not be stored")
	}
}
