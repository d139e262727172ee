package domain

import "context"

// Backend is the property-management collaborator the desk talks to. Both the
// MySQL store and the remote HTTP client implement it. Mutating calls must be
// safe to retry: the implementation rejects duplicate check-ins for occupied
// rooms and returns distinguishable errors rather than opaque failures.
type Backend interface {
	// Catalog reads
	ListRoomsByFloor(ctx context.Context) (map[int][]Room, error)
	ListSnackCategories(ctx context.Context) ([]SnackCategory, error)
	ListSnackItems(ctx context.Context) ([]SnackItem, error)
	RoomRateForFloor(ctx context.Context, floor int) (float64, error)

	// Desk operations
	SubmitCheckIn(ctx context.Context, draft StayDraft, guest Guest, snacks []SnackLine) (Stay, error)

	// AddStayExtras merges newly accumulated snack lines into an open stay's
	// total; the settlement that follows only needs the room number.
	AddStayExtras(ctx context.Context, stayID string, snacks []SnackLine) (Stay, error)

	SubmitCheckOut(ctx context.Context, roomNumber int, method PaymentMethod) (Receipt, error)
	MarkRoomClean(ctx context.Context, roomID string) (Room, error)

	// ActiveStayForRoom returns ErrNoActiveStay when the room has no open stay.
	ActiveStayForRoom(ctx context.Context, roomNumber int) (Stay, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
