package backend

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"hotel_frontdesk/internal/domain"
)

// The remote API has historically emitted two field-naming conventions
// (snake_case and camelCase) depending on the deployment. Each DTO carries
// both spellings and toDomain picks the first populated one, so the rest of
// the codebase only ever sees the canonical shape.

// flexID accepts both string and numeric JSON ids.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func pickStr(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func pickInt(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func pickF64(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

type roomDTO struct {
	ID                flexID  `json:"id"`
	Number            int     `json:"number"`
	RoomNumber        int     `json:"room_number"`
	Status            string  `json:"status"`
	CleaningStatus    string  `json:"cleaning_status"`
	CleaningStatusAlt string  `json:"cleaningStatus"`
	BaseRate          float64 `json:"base_rate"`
	BaseRateAlt       float64 `json:"baseRate"`
}

func (d roomDTO) toDomain() domain.Room {
	cleaning := pickStr(d.CleaningStatus, d.CleaningStatusAlt, string(domain.CleaningClean))
	return domain.Room{
		ID:             string(d.ID),
		Number:         pickInt(d.Number, d.RoomNumber),
		Status:         domain.RoomStatus(pickStr(d.Status, string(domain.StatusAvailable))),
		CleaningStatus: domain.CleaningStatus(cleaning),
		BaseRate:       pickF64(d.BaseRate, d.BaseRateAlt),
	}
}

type categoryDTO struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
}

func (d categoryDTO) toDomain() domain.SnackCategory {
	return domain.SnackCategory{ID: string(d.ID), Name: d.Name}
}

type snackDTO struct {
	ID            flexID  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	CategoryID    flexID  `json:"category_id"`
	CategoryIDAlt flexID  `json:"categoryId"`
	Stock         int     `json:"stock"`
	Description   string  `json:"description"`
}

func (d snackDTO) toDomain() domain.SnackItem {
	return domain.SnackItem{
		ID:          string(d.ID),
		Name:        d.Name,
		Price:       d.Price,
		CategoryID:  pickStr(string(d.CategoryID), string(d.CategoryIDAlt)),
		Stock:       d.Stock,
		Description: d.Description,
	}
}

type rateDTO struct {
	Rate        float64 `json:"rate"`
	BaseRate    float64 `json:"base_rate"`
	BaseRateAlt float64 `json:"baseRate"`
}

func (d rateDTO) value() float64 { return pickF64(d.Rate, d.BaseRate, d.BaseRateAlt) }

type guestDTO struct {
	FullName          string `json:"full_name"`
	FullNameAlt       string `json:"fullName"`
	DocumentType      string `json:"document_type"`
	DocumentTypeAlt   string `json:"documentType"`
	DocumentNumber    string `json:"document_number"`
	DocumentNumberAlt string `json:"documentNumber"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
}

func (d guestDTO) toDomain() domain.Guest {
	return domain.Guest{
		FullName:       pickStr(d.FullName, d.FullNameAlt),
		DocumentType:   pickStr(d.DocumentType, d.DocumentTypeAlt),
		DocumentNumber: pickStr(d.DocumentNumber, d.DocumentNumberAlt),
		Phone:          d.Phone,
		Email:          d.Email,
	}
}

type snackLineDTO struct {
	ItemID       flexID  `json:"item_id"`
	ItemIDAlt    flexID  `json:"itemId"`
	Name         string  `json:"name"`
	UnitPrice    float64 `json:"unit_price"`
	UnitPriceAlt float64 `json:"unitPrice"`
	Quantity     int     `json:"quantity"`
}

func (d snackLineDTO) toDomain() domain.SnackLine {
	return domain.SnackLine{
		ItemID:    pickStr(string(d.ItemID), string(d.ItemIDAlt)),
		Name:      d.Name,
		UnitPrice: pickF64(d.UnitPrice, d.UnitPriceAlt),
		Quantity:  d.Quantity,
	}
}

type stayDTO struct {
	ID            flexID         `json:"id"`
	RoomID        flexID         `json:"room_id"`
	Number        int            `json:"number"`
	RoomNumber    int            `json:"room_number"`
	Guest         guestDTO       `json:"guest"`
	RoomPrice     float64        `json:"room_price"`
	RoomPriceAlt  float64        `json:"roomPrice"`
	Snacks        []snackLineDTO `json:"snacks"`
	Total         float64        `json:"total"`
	CheckedInAt   time.Time      `json:"checked_in_at"`
	CheckedInAlt  time.Time      `json:"checkedInAt"`
}

func (d stayDTO) toDomain() domain.Stay {
	st := domain.Stay{
		ID:         string(d.ID),
		RoomID:     string(d.RoomID),
		RoomNumber: pickInt(d.RoomNumber, d.Number),
		Guest:      d.Guest.toDomain(),
		RoomPrice:  pickF64(d.RoomPrice, d.RoomPriceAlt),
		Total:      d.Total,
	}
	if !d.CheckedInAt.IsZero() {
		st.CheckedInAt = d.CheckedInAt
	} else {
		st.CheckedInAt = d.CheckedInAlt
	}
	for _, l := range d.Snacks {
		st.Snacks = append(st.Snacks, l.toDomain())
	}
	return st
}

type receiptDTO struct {
	StayID     flexID    `json:"stay_id"`
	StayIDAlt  flexID    `json:"stayId"`
	RoomNumber int       `json:"room_number"`
	Number     int       `json:"number"`
	GuestName  string    `json:"guest_name"`
	Total      float64   `json:"total"`
	Method     string    `json:"payment_method"`
	MethodAlt  string    `json:"paymentMethod"`
	SettledAt  time.Time `json:"settled_at"`
}

func (d receiptDTO) toDomain() domain.Receipt {
	return domain.Receipt{
		StayID:     pickStr(string(d.StayID), string(d.StayIDAlt)),
		RoomNumber: pickInt(d.RoomNumber, d.Number),
		GuestName:  d.GuestName,
		Total:      d.Total,
		Method:     domain.PaymentMethod(pickStr(d.Method, d.MethodAlt)),
		SettledAt:  d.SettledAt,
	}
}

// ---- request payloads (always snake_case) ----

type guestPayload struct {
	FullName       string `json:"full_name"`
	DocumentType   string `json:"document_type,omitempty"`
	DocumentNumber string `json:"document_number"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
}

type snackLinePayload struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

func snackLinePayloads(lines []domain.SnackLine) []snackLinePayload {
	if len(lines) == 0 {
		return nil
	}
	out := make([]snackLinePayload, 0, len(lines))
	for _, l := range lines {
		out = append(out, snackLinePayload{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return out
}

type checkInRequest struct {
	RoomID     string             `json:"room_id"`
	RoomNumber int                `json:"room_number"`
	RoomPrice  float64            `json:"room_price"`
	Guest      guestPayload       `json:"guest"`
	Snacks     []snackLinePayload `json:"snacks,omitempty"`
}
