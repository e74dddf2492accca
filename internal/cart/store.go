package cart

import (
	"sync"

	"github.com/fjod/foodclub/internal/domain"
	"github.com/shopspring/decimal"
)

// Store holds one shopper's cart. Totals are never maintained as counters:
// every mutation rebuilds them from the lines before the lock is released.
type Store struct {
	mu    sync.RWMutex
	lines []domain.CartLine
	state domain.CartState
}

func NewStore() *Store {
	s := &Store{}
	s.recompute()
	return s
}

// AddItem adds one unit of item. An item already in the cart keeps the unit
// price it was first added with.
func (s *Store) AddItem(item domain.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.find(item.ID); i >= 0 {
		s.lines[i].Quantity++
	} else {
		s.lines = append(s.lines, domain.CartLine{
			ItemID:    item.ID,
			Name:      item.Name,
			Category:  item.Category,
			Veg:       item.Veg,
			Image:     item.Image,
			UnitPrice: item.Price,
			Quantity:  1,
		})
	}
	s.recompute()
}

// RemoveItem takes one unit of itemID out of the cart and drops the line when
// it reaches zero. Removing an item that is not in the cart does nothing.
func (s *Store) RemoveItem(itemID domain.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(itemID)
	if i < 0 {
		return
	}
	s.lines[i].Quantity--
	if s.lines[i].Quantity <= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
	s.recompute()
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.recompute()
}

// Snapshot returns a copy that later mutations do not affect.
func (s *Store) Snapshot() domain.CartState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.state
	snap.Lines = make([]domain.CartLine, len(s.state.Lines))
	copy(snap.Lines, s.state.Lines)
	return snap
}

func (s *Store) find(itemID domain.ID) int {
	for i := range s.lines {
		if s.lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// recompute must be called with mu held.
func (s *Store) recompute() {
	total := decimal.Zero
	quantity := 0
	for i := range s.lines {
		line := &s.lines[i]
		line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(line.LineTotal)
		quantity += line.Quantity
	}

	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	s.state = domain.CartState{
		Lines:         lines,
		TotalQuantity: quantity,
		TotalAmount:   total,
	}
}
