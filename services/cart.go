package services

import (
	"sync"

	"kudakan-telegram/models"

	"github.com/google/uuid"
)

// Cart is the client-local cart for one chat. It exists only in memory for
// the duration of the session and is never sent anywhere until checkout.
type Cart struct {
	mu    sync.Mutex
	lines []models.CartLine
}

// AddItem appends a new line with quantity 1 and a fresh line id. Adding the
// same menu item twice creates two independent lines, not one line with
// quantity 2; removal then works per tap.
func (c *Cart) AddItem(item models.MenuItem) models.CartLine {
	line := models.CartLine{
		LineID:     uuid.NewString(),
		MenuItemID: item.ID,
		VendorID:   item.VendorID,
		Name:       item.Name,
		UnitPrice:  item.Price,
		Quantity:   1,
	}
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
	return line
}

// Remove deletes exactly the line with the given id.
func (c *Cart) Remove(lineID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.lines {
		if l.LineID == lineID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// Total is the sum of unit price times quantity over all lines.
func (c *Cart) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, l := range c.lines {
		total += l.UnitPrice * int64(l.Quantity)
	}
	return total
}

// Lines returns a copy of the cart contents.
func (c *Cart) Lines() []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// CartStore hands out the cart for a chat, creating it on first use. Carts
// are dropped on logout together with the rest of the chat's session state.
type CartStore struct {
	mu sync.Mutex
	m  map[int64]*Cart
}

func NewCartStore() *CartStore {
	return &CartStore{m: make(map[int64]*Cart)}
}

func (s *CartStore) Get(chatID int64) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.m[chatID]
	if !ok {
		c = &Cart{}
		s.m[chatID] = c
	}
	return c
}

func (s *CartStore) Drop(chatID int64) {
	s.mu.Lock()
	delete(s.m, chatID)
	s.mu.Unlock()
}
