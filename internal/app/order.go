package app

import (
	"strings"

	"hotel_frontdesk/internal/domain"
)

// OrderDraft is the in-memory draft of what one room is being charged during
// the current desk interaction. It serves both flows: a fresh check-in (base
// amount is the room rate) and adding extras before settling an existing stay
// (base amount is what the stay already owes). Totals are recomputed from the
// line list on every read; nothing is cached or incrementally updated.
type OrderDraft struct {
	Room       domain.Room
	Stay       domain.Stay // zero value unless IsCheckout
	IsCheckout bool

	RoomPrice     float64
	OriginalTotal float64

	Guest      domain.Guest
	CategoryID string

	lines []domain.SnackLine
}

// NewCheckInDraft seeds an empty-guest draft for a fresh check-in.
func NewCheckInDraft(room domain.Room, rate float64) *OrderDraft {
	return &OrderDraft{Room: room, RoomPrice: rate}
}

// NewCheckoutDraft seeds a draft for adding extras to an existing stay. Guest
// identity comes from the stay and is read-only in this flow.
func NewCheckoutDraft(room domain.Room, stay domain.Stay) *OrderDraft {
	return &OrderDraft{
		Room:          room,
		Stay:          stay,
		IsCheckout:    true,
		RoomPrice:     stay.RoomPrice,
		OriginalTotal: stay.Total,
		Guest:         stay.Guest,
	}
}

// SelectCategory sets the browsed snack category. Pure navigation.
func (d *OrderDraft) SelectCategory(categoryID string) { d.CategoryID = categoryID }

// AddSnack increments the existing line for the item or appends a new one
// with quantity 1. Stock is not checked here; the store is authoritative.
func (d *OrderDraft) AddSnack(item domain.SnackItem) {
	for i := range d.lines {
		if d.lines[i].ItemID == item.ID {
			d.lines[i].Quantity++
			return
		}
	}
	d.lines = append(d.lines, domain.SnackLine{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  1,
	})
}

// RemoveSnack deletes the line entirely. Removing an absent item is a no-op.
func (d *OrderDraft) RemoveSnack(itemID string) {
	for i := range d.lines {
		if d.lines[i].ItemID == itemID {
			d.lines = append(d.lines[:i], d.lines[i+1:]...)
			return
		}
	}
}

// SetQuantity overwrites the line's quantity; zero or below removes the line.
func (d *OrderDraft) SetQuantity(itemID string, quantity int) {
	if quantity <= 0 {
		d.RemoveSnack(itemID)
		return
	}
	for i := range d.lines {
		if d.lines[i].ItemID == itemID {
			d.lines[i].Quantity = quantity
			return
		}
	}
}

// Lines returns a copy so callers cannot mutate the draft behind its back.
func (d *OrderDraft) Lines() []domain.SnackLine {
	if len(d.lines) == 0 {
		return nil
	}
	out := make([]domain.SnackLine, len(d.lines))
	copy(out, d.lines)
	return out
}

func (d *OrderDraft) Subtotal() float64 {
	var sum float64
	for _, l := range d.lines {
		sum += l.UnitPrice * float64(l.Quantity)
	}
	return sum
}

func (d *OrderDraft) baseAmount() float64 {
	if d.IsCheckout {
		return d.OriginalTotal
	}
	return d.RoomPrice
}

// Total is baseAmount + subtotal, derived on every read.
func (d *OrderDraft) Total() float64 { return d.baseAmount() + d.Subtotal() }

// GuestDataValid gates the confirm actions. A fresh check-in needs a trimmed
// non-empty name plus a document of at least 6 characters; checkout only needs
// the name, which was established at check-in time.
func (d *OrderDraft) GuestDataValid() bool {
	name := strings.TrimSpace(d.Guest.FullName)
	if name == "" {
		return false
	}
	if d.IsCheckout {
		return true
	}
	doc := strings.TrimSpace(d.Guest.DocumentNumber)
	return len(doc) >= 6
}
