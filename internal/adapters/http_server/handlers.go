package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_frontdesk/internal/app"
	"hotel_frontdesk/internal/domain"
)

type Handlers struct {
	Catalog *app.CatalogService
	Desk    *app.SessionManager
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/v1/rooms", h.listRooms)
	s.mux.Get("/v1/snacks", h.listSnacks)
	s.mux.Get("/v1/snacks/categories", h.listSnackCategories)

	s.mux.Get("/v1/desk", h.deskView)
	s.mux.Post("/v1/desk/rooms/{number}/click", h.clickRoom)
	s.mux.Post("/v1/desk/snacks", h.addSnack)
	s.mux.Put("/v1/desk/snacks/{itemID}", h.setQuantity)
	s.mux.Delete("/v1/desk/snacks/{itemID}", h.removeSnack)
	s.mux.Put("/v1/desk/category", h.selectCategory)
	s.mux.Put("/v1/desk/guest", h.setGuest)
	s.mux.Post("/v1/desk/checkin", h.submitCheckIn)
	s.mux.Post("/v1/desk/settlement", h.beginSettlement)
	s.mux.Post("/v1/desk/checkout", h.confirmCheckout)
	s.mux.Post("/v1/desk/reset", h.reset)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the error taxonomy: local validation to 400, unknown
// resources to 404, state conflicts to 409 and everything the store reported
// to 502, with the message carried verbatim so the operator sees it as-is.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case app.IsValidation(err) || errors.Is(err, domain.ErrBadPaymentMethod):
		writeProblem(w, http.StatusBadRequest, "Validation", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrNoActiveStay),
		errors.Is(err, domain.ErrRoomNotBookable),
		errors.Is(err, domain.ErrRoomNotOccupied),
		errors.Is(err, domain.ErrRoomOutOfService),
		errors.Is(err, domain.ErrSettlementInFlight),
		errors.Is(err, domain.ErrStayNotSettleable):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		writeProblem(w, http.StatusBadGateway, "Backend Error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// terminalID keys desk sessions; every terminal gets its own state machine.
func terminalID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Terminal-ID")); id != "" {
		return id
	}
	return "desk-1"
}

func (h *Handlers) session(r *http.Request) *app.Session {
	return h.Desk.Get(terminalID(r))
}

// ---- catalogs ----

type roomView struct {
	ID            string               `json:"id"`
	Number        int                  `json:"number"`
	Floor         int                  `json:"floor"`
	Status        domain.RoomStatus    `json:"status"`
	Cleaning      domain.CleaningStatus `json:"cleaningStatus"`
	DisplayStatus domain.DisplayStatus `json:"displayStatus"`
	BaseRate      float64              `json:"baseRate"`
}

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	byFloor, err := h.Catalog.RoomsByFloor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make(map[string][]roomView, len(byFloor))
	for floor, rooms := range byFloor {
		views := make([]roomView, 0, len(rooms))
		for _, rm := range rooms {
			views = append(views, roomView{
				ID:            rm.ID,
				Number:        rm.Number,
				Floor:         rm.Floor(),
				Status:        rm.Status,
				Cleaning:      rm.CleaningStatus,
				DisplayStatus: rm.DisplayStatus(),
				BaseRate:      rm.BaseRate,
			})
		}
		out[strconv.Itoa(floor)] = views
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) listSnacks(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.SnackItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) listSnackCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Catalog.SnackCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// ---- desk session ----

func (h *Handlers) deskView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session(r).View())
}

func (h *Handlers) clickRoom(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid room number", "room number must be an integer")
		return
	}
	action, err := h.session(r).ClickRoom(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"action": action})
}

func (h *Handlers) addSnack(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ItemID string `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ItemID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "itemId is required")
		return
	}
	if err := h.session(r).AddSnack(r.Context(), body.ItemID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session(r).View())
}

func (h *Handlers) setQuantity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "quantity is required")
		return
	}
	if err := h.session(r).SetQuantity(chi.URLParam(r, "itemID"), body.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session(r).View())
}

func (h *Handlers) removeSnack(w http.ResponseWriter, r *http.Request) {
	if err := h.session(r).RemoveSnack(chi.URLParam(r, "itemID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session(r).View())
}

func (h *Handlers) selectCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CategoryID string `json:"categoryId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "categoryId is required")
		return
	}
	if err := h.session(r).SelectCategory(body.CategoryID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session(r).View())
}

func (h *Handlers) setGuest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FullName       string `json:"fullName"`
		DocumentType   string `json:"documentType"`
		DocumentNumber string `json:"documentNumber"`
		Phone          string `json:"phone"`
		Email          string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "malformed guest payload")
		return
	}
	err := h.session(r).SetGuest(domain.Guest{
		FullName:       body.FullName,
		DocumentType:   body.DocumentType,
		DocumentNumber: body.DocumentNumber,
		Phone:          body.Phone,
		Email:          body.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session(r).View())
}

func (h *Handlers) submitCheckIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WithExtras bool `json:"withExtras"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid body", "malformed check-in payload")
			return
		}
	}
	stay, err := h.session(r).SubmitCheckIn(r.Context(), body.WithExtras)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"stayId": stay.ID,
		"room":   stay.RoomNumber,
		"guest":  stay.Guest.FullName,
		"total":  stay.Total,
	})
}

func (h *Handlers) beginSettlement(w http.ResponseWriter, r *http.Request) {
	if err := h.session(r).BeginSettlement(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session(r).View())
}

func (h *Handlers) confirmCheckout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PaymentMethod string `json:"paymentMethod"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid body", "malformed checkout payload")
			return
		}
	}
	method, err := domain.ParsePaymentMethod(body.PaymentMethod)
	if err != nil {
		writeError(w, err)
		return
	}
	receipt, err := h.session(r).ConfirmCheckout(r.Context(), method)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stayId": receipt.StayID,
		"room":   receipt.RoomNumber,
		"guest":  receipt.GuestName,
		"total":  receipt.Total,
		"method": receipt.Method,
	})
}

func (h *Handlers) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.session(r).Reset(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session(r).View())
}
