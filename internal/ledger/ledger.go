// Package ledger ведёт учёт остатка бюджета участников торгов.
package ledger

import (
	"fmt"
	"sync"

	"github.com/mmeshcher/lot-auction/internal/model"
)

type account struct {
	initial   int64
	remaining int64
}

// Ledger хранит бюджеты участников. Бюджет назначается один раз при регистрации и только уменьшается.
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*account
}

// New создаёт пустой реестр бюджетов.
func New() *Ledger {
	return &Ledger{
		accounts: make(map[string]*account),
	}
}

// Register назначает участнику фиксированный бюджет.
func (l *Ledger) Register(bidderID string, capacity int64) error {
	if capacity < 0 {
		return fmt.Errorf("register %s: negative capacity %d", bidderID, capacity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[bidderID]; ok {
		return fmt.Errorf("%w: %s", model.ErrBidderExists, bidderID)
	}
	l.accounts[bidderID] = &account{initial: capacity, remaining: capacity}
	return nil
}

// RemainingCapacity возвращает остаток бюджета участника.
func (l *Ledger) RemainingCapacity(bidderID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[bidderID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", model.ErrUnknownBidder, bidderID)
	}
	return acc.remaining, nil
}

// CanAfford сообщает, покрывает ли остаток бюджета указанную сумму.
// Для незарегистрированного участника всегда false.
func (l *Ledger) CanAfford(bidderID string, amount int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[bidderID]
	return ok && amount <= acc.remaining
}

// Debit списывает сумму с бюджета участника и возвращает новый остаток.
func (l *Ledger) Debit(bidderID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit %s: negative amount %d", bidderID, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[bidderID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", model.ErrUnknownBidder, bidderID)
	}
	if amount > acc.remaining {
		return acc.remaining, fmt.Errorf("%w: %s has %d, needs %d", model.ErrInsufficientBudget, bidderID, acc.remaining, amount)
	}

	acc.remaining -= amount
	return acc.remaining, nil
}

// Spent возвращает сумму всех списаний участника.
func (l *Ledger) Spent(bidderID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[bidderID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", model.ErrUnknownBidder, bidderID)
	}
	return acc.initial - acc.remaining, nil
}
