package domain

import "time"

// Guest identity collected at check-in. Identity fields become read-only once
// the stay exists; checkout only ever adds charges.
type Guest struct {
	FullName       string `json:"fullName"`
	DocumentType   string `json:"documentType,omitempty"`
	DocumentNumber string `json:"documentNumber"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
}

// SnackLine is one charged catalog item. Quantity is always >= 1; dropping a
// line to zero removes it entirely.
type SnackLine struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// Stay is an open check-in record. ID is assigned by the store at check-in
// creation; a draft that was never submitted has no Stay at all.
type Stay struct {
	ID          string
	RoomID      string
	RoomNumber  int
	Guest       Guest
	RoomPrice   float64 // rate snapshotted at check-in, does not track later changes
	Snacks      []SnackLine
	Total       float64
	CheckedInAt time.Time
}

// StayDraft carries the room context for a check-in request.
type StayDraft struct {
	RoomID     string
	RoomNumber int
	RoomPrice  float64
}

type PaymentMethod string

const (
	PayCash    PaymentMethod = "cash"
	PayCard    PaymentMethod = "card"
	PayDigital PaymentMethod = "digital"
)

// DefaultPaymentMethod is preselected in the settlement flow.
const DefaultPaymentMethod = PayCash

// ParsePaymentMethod validates the closed enum. Empty input falls back to the
// default; anything else is rejected.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PayCash, PayCard, PayDigital:
		return PaymentMethod(s), nil
	case "":
		return DefaultPaymentMethod, nil
	default:
		return "", ErrBadPaymentMethod
	}
}

// Receipt is the settled outcome of a checkout.
type Receipt struct {
	StayID     string
	RoomNumber int
	GuestName  string
	Total      float64
	Method     PaymentMethod
	SettledAt  time.Time
}
