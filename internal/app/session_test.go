package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hotel_frontdesk/internal/app"
	"hotel_frontdesk/internal/domain"
)

// ---- fakes ----

type fakeBackend struct {
	mu    sync.Mutex
	rooms map[int][]domain.Room
	cats  []domain.SnackCategory
	items []domain.SnackItem
	rates map[int]float64
	stay  domain.Stay

	stayErr     error
	checkInErr  error
	checkOutErr error

	cleanCalls     int32
	checkInCalls   int32
	checkOutCalls  int32
	extrasCalls    int32
	lookupCalls    int32
	listRoomsCalls int32

	cleanStarted    chan struct{} // closed-once signal that a clean entered
	cleanBlock      chan struct{} // clean waits on this when non-nil
	checkOutStarted chan struct{}
	checkOutBlock   chan struct{}
}

func (f *fakeBackend) ListRoomsByFloor(ctx context.Context) (map[int][]domain.Room, error) {
	atomic.AddInt32(&f.listRoomsCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int][]domain.Room, len(f.rooms))
	for k, v := range f.rooms {
		out[k] = append([]domain.Room(nil), v...)
	}
	return out, nil
}

func (f *fakeBackend) ListSnackCategories(ctx context.Context) ([]domain.SnackCategory, error) {
	return f.cats, nil
}

func (f *fakeBackend) ListSnackItems(ctx context.Context) ([]domain.SnackItem, error) {
	return f.items, nil
}

func (f *fakeBackend) RoomRateForFloor(ctx context.Context, floor int) (float64, error) {
	if r, ok := f.rates[floor]; ok {
		return r, nil
	}
	return 0, domain.ErrNotFound
}

func (f *fakeBackend) SubmitCheckIn(ctx context.Context, draft domain.StayDraft, guest domain.Guest, snacks []domain.SnackLine) (domain.Stay, error) {
	atomic.AddInt32(&f.checkInCalls, 1)
	if f.checkInErr != nil {
		return domain.Stay{}, f.checkInErr
	}
	total := draft.RoomPrice
	for _, l := range snacks {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return domain.Stay{
		ID:         "77",
		RoomID:     draft.RoomID,
		RoomNumber: draft.RoomNumber,
		Guest:      guest,
		RoomPrice:  draft.RoomPrice,
		Snacks:     snacks,
		Total:      total,
	}, nil
}

func (f *fakeBackend) AddStayExtras(ctx context.Context, stayID string, snacks []domain.SnackLine) (domain.Stay, error) {
	atomic.AddInt32(&f.extrasCalls, 1)
	st := f.stay
	for _, l := range snacks {
		st.Total += l.UnitPrice * float64(l.Quantity)
	}
	f.mu.Lock()
	f.stay = st
	f.mu.Unlock()
	return st, nil
}

func (f *fakeBackend) SubmitCheckOut(ctx context.Context, roomNumber int, method domain.PaymentMethod) (domain.Receipt, error) {
	atomic.AddInt32(&f.checkOutCalls, 1)
	if f.checkOutStarted != nil {
		close(f.checkOutStarted)
		f.checkOutStarted = nil
	}
	if f.checkOutBlock != nil {
		<-f.checkOutBlock
	}
	if f.checkOutErr != nil {
		return domain.Receipt{}, f.checkOutErr
	}
	return domain.Receipt{
		StayID:     f.stay.ID,
		RoomNumber: roomNumber,
		GuestName:  f.stay.Guest.FullName,
		Total:      f.stay.Total,
		Method:     method,
	}, nil
}

func (f *fakeBackend) MarkRoomClean(ctx context.Context, roomID string) (domain.Room, error) {
	atomic.AddInt32(&f.cleanCalls, 1)
	if f.cleanStarted != nil {
		close(f.cleanStarted)
		f.cleanStarted = nil
	}
	if f.cleanBlock != nil {
		<-f.cleanBlock
	}
	return domain.Room{ID: roomID, Status: domain.StatusAvailable, CleaningStatus: domain.CleaningClean}, nil
}

func (f *fakeBackend) ActiveStayForRoom(ctx context.Context, roomNumber int) (domain.Stay, error) {
	atomic.AddInt32(&f.lookupCalls, 1)
	if f.stayErr != nil {
		return domain.Stay{}, f.stayErr
	}
	return f.stay, nil
}

// fakeCache round-trips JSON like the real adapter so cached values are
// decoupled from the backend's backing slices.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

// ---- helpers ----

func room(number int, status domain.RoomStatus, cleaning domain.CleaningStatus) domain.Room {
	return domain.Room{ID: "r" + strconv.Itoa(number), Number: number, Status: status, CleaningStatus: cleaning}
}

func newFixture(rooms ...domain.Room) (*fakeBackend, *app.Session) {
	byFloor := make(map[int][]domain.Room)
	for _, r := range rooms {
		byFloor[r.Floor()] = append(byFloor[r.Floor()], r)
	}
	be := &fakeBackend{
		rooms: byFloor,
		rates: map[int]float64{1: 100, 2: 120},
		items: []domain.SnackItem{
			{ID: "s1", Name: "Water", Price: 5.00, Stock: 10},
			{ID: "s2", Name: "Chips", Price: 3.50, Stock: 4},
		},
	}
	catalog := app.NewCatalogService(be, &fakeCache{}, 10*time.Minute)
	return be, app.NewSession(be, catalog, zerolog.Nop())
}

// ---- tests ----

func TestClickRoom_GuardAllowsOneActionPerRoom(t *testing.T) {
	be, s := newFixture(room(101, domain.StatusAvailable, domain.CleaningDirty))
	started := make(chan struct{})
	block := make(chan struct{})
	be.cleanStarted = started
	be.cleanBlock = block

	done := make(chan error, 1)
	go func() {
		_, err := s.ClickRoom(context.Background(), 101)
		done <- err
	}()
	<-started // first click is inside the backend call now

	action, err := s.ClickRoom(context.Background(), 101)
	if err != nil {
		t.Fatalf("second click: %v", err)
	}
	if action != app.ActionNone {
		t.Fatalf("second click dispatched %s, want none", action)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first click: %v", err)
	}
	if n := atomic.LoadInt32(&be.cleanCalls); n != 1 {
		t.Fatalf("clean called %d times, want 1", n)
	}
}

func TestClickRoom_DirtyTakesPrecedenceOverOccupied(t *testing.T) {
	be, s := newFixture(room(201, domain.StatusOccupied, domain.CleaningDirty))

	action, err := s.ClickRoom(context.Background(), 201)
	if err != nil {
		t.Fatalf("click: %v", err)
	}
	if action != app.ActionClean {
		t.Fatalf("dispatched %s, want clean", action)
	}
	if atomic.LoadInt32(&be.lookupCalls) != 0 {
		t.Fatalf("stay lookup must not run when dirty wins")
	}
}

func TestClickRoom_OccupiedWithoutStayIsHardError(t *testing.T) {
	be, s := newFixture(room(102, domain.StatusOccupied, domain.CleaningClean))
	be.stayErr = domain.ErrNoActiveStay

	_, err := s.ClickRoom(context.Background(), 102)
	if !errors.Is(err, domain.ErrNoActiveStay) {
		t.Fatalf("err = %v, want ErrNoActiveStay", err)
	}
	if v := s.View(); v.Mode != app.ModeGrid {
		t.Fatalf("session left grid mode on failed lookup")
	}
}

func TestClickRoom_MaintenanceRejected(t *testing.T) {
	_, s := newFixture(room(103, domain.StatusMaintenance, domain.CleaningClean))

	_, err := s.ClickRoom(context.Background(), 103)
	if !errors.Is(err, domain.ErrRoomOutOfService) {
		t.Fatalf("err = %v, want ErrRoomOutOfService", err)
	}
}

func TestClickRoom_BeginCheckInSeedsDraft(t *testing.T) {
	_, s := newFixture(room(104, domain.StatusAvailable, domain.CleaningClean))

	action, err := s.ClickRoom(context.Background(), 104)
	if err != nil {
		t.Fatalf("click: %v", err)
	}
	if action != app.ActionBeginCheckIn {
		t.Fatalf("dispatched %s, want begin_checkin", action)
	}
	v := s.View()
	if v.Mode != app.ModeForm || v.OrderStep != 1 || v.IsCheckout {
		t.Fatalf("unexpected view after check-in click: %+v", v)
	}
	if v.Total != 100 { // floor 1 rate, no snacks yet
		t.Fatalf("total = %v, want 100", v.Total)
	}
}

func TestSubmitCheckIn_RevalidatesAndResets(t *testing.T) {
	be, s := newFixture(room(104, domain.StatusAvailable, domain.CleaningClean))
	ctx := context.Background()
	if _, err := s.ClickRoom(ctx, 104); err != nil {
		t.Fatalf("click: %v", err)
	}

	// invalid guest is rejected before any backend call
	if _, err := s.SubmitCheckIn(ctx, false); !app.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if atomic.LoadInt32(&be.checkInCalls) != 0 {
		t.Fatalf("backend called despite invalid guest")
	}

	if err := s.SetGuest(domain.Guest{FullName: "Ana Lopez", DocumentNumber: "123456"}); err != nil {
		t.Fatalf("set guest: %v", err)
	}
	if err := s.AddSnack(ctx, "s1"); err != nil {
		t.Fatalf("add snack: %v", err)
	}

	// room-only variant forces snacks empty regardless of the accumulator
	stay, err := s.SubmitCheckIn(ctx, false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(stay.Snacks) != 0 || stay.Total != 100 {
		t.Fatalf("room-only stay carried snacks: %+v", stay)
	}
	if v := s.View(); v.Mode != app.ModeGrid || v.Lines != nil {
		t.Fatalf("session not reset after success: %+v", v)
	}
}

func TestSubmitCheckIn_FailureKeepsForm(t *testing.T) {
	be, s := newFixture(room(104, domain.StatusAvailable, domain.CleaningClean))
	be.checkInErr = errors.New("room just taken")
	ctx := context.Background()
	if _, err := s.ClickRoom(ctx, 104); err != nil {
		t.Fatalf("click: %v", err)
	}
	if err := s.SetGuest(domain.Guest{FullName: "Ana Lopez", DocumentNumber: "123456"}); err != nil {
		t.Fatalf("set guest: %v", err)
	}

	_, err := s.SubmitCheckIn(ctx, true)
	if err == nil {
		t.Fatalf("expected backend error")
	}
	if v := s.View(); v.Mode != app.ModeForm {
		t.Fatalf("form discarded on failure; operator cannot retry")
	}
}

func checkoutFixture(t *testing.T) (*fakeBackend, *app.Session) {
	t.Helper()
	be, s := newFixture(room(105, domain.StatusOccupied, domain.CleaningClean))
	be.stay = domain.Stay{
		ID:         "42",
		RoomNumber: 105,
		Guest:      domain.Guest{FullName: "Ana Lopez", DocumentNumber: "123456"},
		RoomPrice:  100,
		Total:      150.00,
	}
	action, err := s.ClickRoom(context.Background(), 105)
	if err != nil {
		t.Fatalf("click: %v", err)
	}
	if action != app.ActionBeginCheckout {
		t.Fatalf("dispatched %s, want begin_checkout", action)
	}
	return be, s
}

func TestCheckout_TotalIncludesExtras(t *testing.T) {
	_, s := checkoutFixture(t)
	ctx := context.Background()

	// 2x water @5.00 + 1x chips @3.50 on top of 150.00 owed
	if err := s.AddSnack(ctx, "s1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddSnack(ctx, "s1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddSnack(ctx, "s2"); err != nil {
		t.Fatalf("add: %v", err)
	}

	if v := s.View(); v.Total != 168.50 {
		t.Fatalf("total = %v, want 168.50", v.Total)
	}
}

func TestCheckout_GuestIdentityReadOnly(t *testing.T) {
	_, s := checkoutFixture(t)
	err := s.SetGuest(domain.Guest{FullName: "Someone Else", DocumentNumber: "999999"})
	if !app.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCheckout_NoDoubleSubmitWhileProcessing(t *testing.T) {
	be, s := checkoutFixture(t)
	ctx := context.Background()
	if err := s.BeginSettlement(); err != nil {
		t.Fatalf("begin settlement: %v", err)
	}

	started := make(chan struct{})
	block := make(chan struct{})
	be.checkOutStarted = started
	be.checkOutBlock = block

	done := make(chan error, 1)
	go func() {
		_, err := s.ConfirmCheckout(ctx, domain.PayCash)
		done <- err
	}()
	<-started

	// re-submission and cancellation are both refused mid-commit
	if _, err := s.ConfirmCheckout(ctx, domain.PayCard); !errors.Is(err, domain.ErrSettlementInFlight) {
		t.Fatalf("second confirm: %v, want ErrSettlementInFlight", err)
	}
	if err := s.Reset(); !errors.Is(err, domain.ErrSettlementInFlight) {
		t.Fatalf("reset mid-commit: %v, want ErrSettlementInFlight", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if n := atomic.LoadInt32(&be.checkOutCalls); n != 1 {
		t.Fatalf("SubmitCheckOut called %d times, want 1", n)
	}
	if v := s.View(); v.Mode != app.ModeGrid {
		t.Fatalf("session not back on grid after settlement")
	}
}

func TestCheckout_FailureAllowsRetryWithDifferentMethod(t *testing.T) {
	be, s := checkoutFixture(t)
	ctx := context.Background()
	if err := s.BeginSettlement(); err != nil {
		t.Fatalf("begin settlement: %v", err)
	}

	be.checkOutErr = errors.New("terminal offline")
	if _, err := s.ConfirmCheckout(ctx, domain.PayCard); err == nil {
		t.Fatalf("expected failure")
	}
	if v := s.View(); v.CheckoutPhase != app.CheckoutFailed {
		t.Fatalf("phase = %s, want failed", v.CheckoutPhase)
	}

	be.checkOutErr = nil
	receipt, err := s.ConfirmCheckout(ctx, domain.PayCash)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if receipt.Method != domain.PayCash {
		t.Fatalf("method = %s, want cash", receipt.Method)
	}
}

func TestCheckout_ExtrasMergedBeforeSettlement(t *testing.T) {
	be, s := checkoutFixture(t)
	ctx := context.Background()
	if err := s.AddSnack(ctx, "s2"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.BeginSettlement(); err != nil {
		t.Fatalf("begin settlement: %v", err)
	}

	receipt, err := s.ConfirmCheckout(ctx, domain.PayDigital)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if atomic.LoadInt32(&be.extrasCalls) != 1 {
		t.Fatalf("extras not pushed to the store before settlement")
	}
	if receipt.Total != 153.50 {
		t.Fatalf("settled total = %v, want 153.50", receipt.Total)
	}
}

func TestBeginSettlement_RequiresPersistedStay(t *testing.T) {
	be, s := newFixture(room(105, domain.StatusOccupied, domain.CleaningClean))
	be.stay = domain.Stay{ID: "", RoomNumber: 105, Guest: domain.Guest{FullName: "Ana"}, Total: 90}
	if _, err := s.ClickRoom(context.Background(), 105); err != nil {
		t.Fatalf("click: %v", err)
	}
	if err := s.BeginSettlement(); !errors.Is(err, domain.ErrStayNotSettleable) {
		t.Fatalf("err = %v, want ErrStayNotSettleable", err)
	}
}

func TestReset_IdempotentFromAnyMode(t *testing.T) {
	_, s := newFixture(room(104, domain.StatusAvailable, domain.CleaningClean))
	ctx := context.Background()

	initial := s.View()

	if _, err := s.ClickRoom(ctx, 104); err != nil {
		t.Fatalf("click: %v", err)
	}
	if err := s.AddSnack(ctx, "s1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.SetGuest(domain.Guest{FullName: "Ana Lopez", DocumentNumber: "123456"}); err != nil {
		t.Fatalf("set guest: %v", err)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("second reset: %v", err)
	}

	got := s.View()
	if got.Mode != app.ModeGrid || got.RoomNumber != nil || got.Lines != nil ||
		got.Guest != (domain.Guest{}) || got.CheckoutPhase != app.CheckoutIdle {
		t.Fatalf("reset state differs from initial: %+v vs %+v", got, initial)
	}
}

func TestClickRoom_IgnoredWhileInForm(t *testing.T) {
	be, s := newFixture(
		room(104, domain.StatusAvailable, domain.CleaningClean),
		room(106, domain.StatusAvailable, domain.CleaningDirty),
	)
	ctx := context.Background()
	if _, err := s.ClickRoom(ctx, 104); err != nil {
		t.Fatalf("click: %v", err)
	}

	action, err := s.ClickRoom(ctx, 106)
	if err != nil || action != app.ActionNone {
		t.Fatalf("click in form mode: action=%s err=%v, want none/nil", action, err)
	}
	if atomic.LoadInt32(&be.cleanCalls) != 0 {
		t.Fatalf("clean dispatched while terminal was in form mode")
	}
}
