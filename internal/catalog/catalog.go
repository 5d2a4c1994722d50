// Package catalog хранит упорядоченный список лотов, доступных для торгов.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mmeshcher/lot-auction/internal/model"
	"github.com/mmeshcher/lot-auction/internal/validation"
)

// SortDirection задаёт порядок сортировки по цене.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Catalog — потокобезопасный каталог лотов в памяти.
type Catalog struct {
	mu    sync.RWMutex
	lots  []model.Lot
	newID func() string
}

// New создаёт каталог с начальным набором лотов.
func New(lots ...model.Lot) *Catalog {
	c := &Catalog{
		newID: uuid.NewString,
	}
	c.lots = append(c.lots, lots...)
	return c
}

// AddLot проверяет данные лота и добавляет его в конец каталога.
func (c *Catalog) AddLot(spec model.LotSpec) (model.Lot, error) {
	if err := validation.ValidateLotSpec(spec); err != nil {
		return model.Lot{}, fmt.Errorf("add lot: %w", err)
	}

	lot := model.Lot{ID: c.newID(), LotSpec: spec}

	c.mu.Lock()
	c.lots = append(c.lots, lot)
	c.mu.Unlock()

	return lot, nil
}

// List возвращает копию всех лотов в порядке добавления.
func (c *Catalog) List() []model.Lot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Lot, len(c.lots))
	copy(out, c.lots)
	return out
}

// Len возвращает количество лотов в каталоге.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lots)
}

// Search отбирает лоты, у которых имя, роль или страна содержат запрос без учёта регистра.
// Пустой запрос возвращает все лоты.
func Search(lots []model.Lot, query string) []model.Lot {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return clone(lots)
	}

	var out []model.Lot
	for _, l := range lots {
		if strings.Contains(strings.ToLower(l.Name), q) ||
			strings.Contains(strings.ToLower(l.Role), q) ||
			strings.Contains(strings.ToLower(l.Country), q) {
			out = append(out, l)
		}
	}
	return out
}

// FilterByRole отбирает лоты с указанной ролью. Пустая роль или "all" возвращают все лоты.
func FilterByRole(lots []model.Lot, role string) []model.Lot {
	if role == "" || strings.EqualFold(role, "all") {
		return clone(lots)
	}

	var out []model.Lot
	for _, l := range lots {
		if strings.EqualFold(l.Role, role) {
			out = append(out, l)
		}
	}
	return out
}

// SortByPrice возвращает новую последовательность, отсортированную по базовой цене.
func SortByPrice(lots []model.Lot, dir SortDirection) []model.Lot {
	out := clone(lots)
	sort.SliceStable(out, func(i, j int) bool {
		if dir == SortDesc {
			return out[i].BasePrice > out[j].BasePrice
		}
		return out[i].BasePrice < out[j].BasePrice
	})
	return out
}

func clone(lots []model.Lot) []model.Lot {
	out := make([]model.Lot, len(lots))
	copy(out, lots)
	return out
}
