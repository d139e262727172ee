package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"hotel_frontdesk/internal/adapters/observability"
	"hotel_frontdesk/internal/domain"
)

// Mode is the top-level UI mode a desk terminal is in.
type Mode string

const (
	ModeGrid Mode = "grid"
	ModeForm Mode = "form"
)

// Action is what a room click dispatched.
type Action string

const (
	ActionNone          Action = "none"
	ActionClean         Action = "clean"
	ActionBeginCheckIn  Action = "begin_checkin"
	ActionBeginCheckout Action = "begin_checkout"
)

// CheckoutPhase tracks the settlement sub-flow.
type CheckoutPhase string

const (
	CheckoutIdle            CheckoutPhase = "idle"
	CheckoutAwaitingPayment CheckoutPhase = "awaiting_payment"
	CheckoutProcessing      CheckoutPhase = "processing"
	CheckoutFailed          CheckoutPhase = "failed"
)

// Session is the state machine behind one desk terminal: grid/form mode, the
// current order draft, the per-room in-flight guard and the settlement phase.
// All transitions go through its methods; there is no package-level mutable
// state. Backend calls happen outside the session lock so two different rooms
// can have concurrent in-flight actions, while the processing set keeps each
// individual room to at most one.
type Session struct {
	backend domain.Backend
	catalog *CatalogService
	log     zerolog.Logger

	mu         sync.Mutex
	mode       Mode
	orderStep  int
	draft      *OrderDraft
	processing map[string]struct{} // room IDs with an action in flight
	checkout   CheckoutPhase
}

func NewSession(b domain.Backend, c *CatalogService, log zerolog.Logger) *Session {
	return &Session{
		backend:    b,
		catalog:    c,
		log:        log,
		mode:       ModeGrid,
		processing: make(map[string]struct{}),
		checkout:   CheckoutIdle,
	}
}

// ClickRoom maps a click on the given room to exactly one action, in priority
// order: needs-cleaning, occupied, bookable, otherwise reject. A second click
// on the same room while the first action is pending is ignored (ActionNone,
// nil), as is any click while the terminal is already in form mode. The guard
// is released on every path.
func (s *Session) ClickRoom(ctx context.Context, roomNumber int) (Action, error) {
	room, err := s.catalog.RoomByNumber(ctx, roomNumber)
	if err != nil {
		return ActionNone, fmt.Errorf("room %d: %w", roomNumber, err)
	}

	s.mu.Lock()
	if s.mode != ModeGrid {
		s.mu.Unlock()
		return ActionNone, nil
	}
	if _, busy := s.processing[room.ID]; busy {
		s.mu.Unlock()
		return ActionNone, nil
	}
	s.processing[room.ID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.processing, room.ID)
		s.mu.Unlock()
	}()

	action, err := s.dispatch(ctx, room)
	observability.ObserveDeskAction(string(action), err)
	return action, err
}

func (s *Session) dispatch(ctx context.Context, room domain.Room) (Action, error) {
	switch {
	case room.NeedsCleaning():
		// No confirmation prompt; the store call happens immediately and the
		// terminal stays on the grid.
		if _, err := s.backend.MarkRoomClean(ctx, room.ID); err != nil {
			return ActionClean, fmt.Errorf("clean room %d: %w", room.Number, err)
		}
		s.catalog.InvalidateRooms(ctx)
		s.log.Info().Int("room", room.Number).Msg("room sent to cleaning")
		return ActionClean, nil

	case room.Status == domain.StatusOccupied:
		stay, err := s.backend.ActiveStayForRoom(ctx, room.Number)
		if err != nil {
			// Includes ErrNoActiveStay: surfaced as-is, the room stays in its
			// occupied display state, never silently treated as a check-in.
			return ActionBeginCheckout, fmt.Errorf("room %d: %w", room.Number, err)
		}
		s.mu.Lock()
		s.draft = NewCheckoutDraft(room, stay)
		s.mode = ModeForm
		s.orderStep = 1
		s.checkout = CheckoutIdle
		s.mu.Unlock()
		return ActionBeginCheckout, nil

	case room.Bookable():
		rate, err := s.catalog.RoomRateForFloor(ctx, room.Floor())
		if err != nil {
			return ActionBeginCheckIn, fmt.Errorf("rate for floor %d: %w", room.Floor(), err)
		}
		s.mu.Lock()
		s.draft = NewCheckInDraft(room, rate)
		s.mode = ModeForm
		s.orderStep = 1
		s.checkout = CheckoutIdle
		s.mu.Unlock()
		return ActionBeginCheckIn, nil

	default:
		return ActionNone, domain.ErrRoomOutOfService
	}
}

// SelectCategory, AddSnack, SetQuantity and RemoveSnack edit the current
// draft; all require form mode.

func (s *Session) SelectCategory(categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return newValidationError("no order in progress")
	}
	s.draft.SelectCategory(categoryID)
	return nil
}

func (s *Session) AddSnack(ctx context.Context, itemID string) error {
	item, err := s.catalog.SnackItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("snack %s: %w", itemID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return newValidationError("no order in progress")
	}
	s.draft.AddSnack(item)
	return nil
}

func (s *Session) SetQuantity(itemID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return newValidationError("no order in progress")
	}
	s.draft.SetQuantity(itemID, quantity)
	return nil
}

func (s *Session) RemoveSnack(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return newValidationError("no order in progress")
	}
	s.draft.RemoveSnack(itemID)
	return nil
}

// SetGuest updates guest identity on a fresh check-in draft. Identity is
// read-only once the stay exists, so checkout drafts refuse the edit.
func (s *Session) SetGuest(g domain.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return newValidationError("no order in progress")
	}
	if s.draft.IsCheckout {
		return newValidationError("guest identity is read-only during checkout")
	}
	s.draft.Guest = g
	return nil
}

// SubmitCheckIn persists the draft stay. Preconditions are re-validated here
// rather than trusted from the gate. With withExtras false the snack lines
// are forced empty regardless of the accumulator. On failure the terminal
// stays in form mode so the operator can correct and retry; on success the
// session resets to the grid and the room catalog is invalidated.
func (s *Session) SubmitCheckIn(ctx context.Context, withExtras bool) (domain.Stay, error) {
	s.mu.Lock()
	if s.draft == nil || s.draft.IsCheckout {
		s.mu.Unlock()
		return domain.Stay{}, newValidationError("no check-in in progress")
	}
	if !s.draft.GuestDataValid() {
		s.mu.Unlock()
		return domain.Stay{}, newValidationError("guest name and a document of at least 6 characters are required")
	}
	draft := domain.StayDraft{
		RoomID:     s.draft.Room.ID,
		RoomNumber: s.draft.Room.Number,
		RoomPrice:  s.draft.RoomPrice,
	}
	guest := s.draft.Guest
	var snacks []domain.SnackLine
	if withExtras {
		snacks = s.draft.Lines()
	}
	s.mu.Unlock()

	stay, err := s.backend.SubmitCheckIn(ctx, draft, guest, snacks)
	if err != nil {
		observability.ObserveDeskAction("checkin", err)
		return domain.Stay{}, fmt.Errorf("check-in room %d: %w", draft.RoomNumber, err)
	}
	observability.ObserveDeskAction("checkin", nil)
	s.log.Info().
		Int("room", draft.RoomNumber).
		Str("guest", guest.FullName).
		Float64("total", stay.Total).
		Msg("check-in confirmed")

	s.catalog.InvalidateRooms(ctx)
	s.catalog.InvalidateSnacks(ctx)
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	return stay, nil
}

// BeginSettlement enters the payment-method selection phase. It requires a
// checkout draft whose stay carries a store-assigned id; a purely local draft
// cannot be settled.
func (s *Session) BeginSettlement() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil || !s.draft.IsCheckout {
		return newValidationError("no checkout in progress")
	}
	if s.draft.Stay.ID == "" {
		return domain.ErrStayNotSettleable
	}
	if s.checkout == CheckoutProcessing {
		return domain.ErrSettlementInFlight
	}
	s.checkout = CheckoutAwaitingPayment
	return nil
}

// ConfirmCheckout commits the settlement with the chosen payment method.
// While a commit is in flight re-submission is refused, so the store sees at
// most one SubmitCheckOut per confirmation. On failure the phase moves to
// failed with controls re-enabled for a retry, possibly with a different
// method; on success the session resets to the grid.
func (s *Session) ConfirmCheckout(ctx context.Context, method domain.PaymentMethod) (domain.Receipt, error) {
	s.mu.Lock()
	if s.draft == nil || !s.draft.IsCheckout {
		s.mu.Unlock()
		return domain.Receipt{}, newValidationError("no checkout in progress")
	}
	if s.checkout == CheckoutProcessing {
		s.mu.Unlock()
		return domain.Receipt{}, domain.ErrSettlementInFlight
	}
	if s.checkout != CheckoutAwaitingPayment && s.checkout != CheckoutFailed {
		s.mu.Unlock()
		return domain.Receipt{}, newValidationError("settlement not started")
	}
	if s.draft.Stay.ID == "" {
		s.mu.Unlock()
		return domain.Receipt{}, domain.ErrStayNotSettleable
	}
	roomNumber := s.draft.Room.Number
	stayID := s.draft.Stay.ID
	extras := s.draft.Lines()
	s.checkout = CheckoutProcessing
	s.mu.Unlock()

	// Extras accumulated during the checkout flow are merged into the stay
	// first, so the settled total is originalTotal plus the new lines.
	if len(extras) > 0 {
		if _, err := s.backend.AddStayExtras(ctx, stayID, extras); err != nil {
			s.mu.Lock()
			s.checkout = CheckoutFailed
			s.mu.Unlock()
			observability.ObserveDeskAction("checkout", err)
			return domain.Receipt{}, fmt.Errorf("add extras to stay %s: %w", stayID, err)
		}
		s.mu.Lock()
		if s.draft != nil {
			// lines are now part of the stay's total; drop them so a retry
			// after a later failure does not double-charge
			s.draft.OriginalTotal += s.draft.Subtotal()
			for _, l := range extras {
				s.draft.RemoveSnack(l.ItemID)
			}
		}
		s.mu.Unlock()
	}

	receipt, err := s.backend.SubmitCheckOut(ctx, roomNumber, method)
	if err != nil {
		s.mu.Lock()
		s.checkout = CheckoutFailed
		s.mu.Unlock()
		observability.ObserveDeskAction("checkout", err)
		return domain.Receipt{}, fmt.Errorf("checkout room %d: %w", roomNumber, err)
	}
	observability.ObserveDeskAction("checkout", nil)
	s.log.Info().
		Int("room", roomNumber).
		Str("method", string(method)).
		Float64("total", receipt.Total).
		Msg("checkout settled")

	s.catalog.InvalidateRooms(ctx)
	s.catalog.InvalidateSnacks(ctx)
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	return receipt, nil
}

// Reset returns the terminal to its initial grid state: no selected room, no
// draft, no snack lines, empty guest data. It is idempotent and callable from
// any mode, with one exception: while a settlement commit is in flight the
// reset is refused so a payment can never be abandoned mid-commit. In-flight
// room guards release themselves when their action finishes.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout == CheckoutProcessing {
		return domain.ErrSettlementInFlight
	}
	s.resetLocked()
	return nil
}

func (s *Session) resetLocked() {
	s.mode = ModeGrid
	s.orderStep = 0
	s.draft = nil
	s.checkout = CheckoutIdle
}

// InForm reports whether the terminal is inside the ordering flow; the
// periodic catalog refresh skips while any terminal is.
func (s *Session) InForm() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode == ModeForm
}

// SessionView is a consistent snapshot for the API layer.
type SessionView struct {
	Mode          Mode               `json:"mode"`
	OrderStep     int                `json:"orderStep"`
	RoomNumber    *int               `json:"roomNumber,omitempty"`
	IsCheckout    bool               `json:"isCheckout"`
	CategoryID    string             `json:"categoryId,omitempty"`
	Guest         domain.Guest       `json:"guest"`
	Lines         []domain.SnackLine `json:"lines"`
	Subtotal      float64            `json:"subtotal"`
	Total         float64            `json:"total"`
	GuestValid    bool               `json:"guestValid"`
	CheckoutPhase CheckoutPhase      `json:"checkoutPhase"`
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := SessionView{
		Mode:          s.mode,
		OrderStep:     s.orderStep,
		CheckoutPhase: s.checkout,
	}
	if s.draft != nil {
		n := s.draft.Room.Number
		v.RoomNumber = &n
		v.IsCheckout = s.draft.IsCheckout
		v.CategoryID = s.draft.CategoryID
		v.Guest = s.draft.Guest
		v.Lines = s.draft.Lines()
		v.Subtotal = s.draft.Subtotal()
		v.Total = s.draft.Total()
		v.GuestValid = s.draft.GuestDataValid()
	}
	return v
}
