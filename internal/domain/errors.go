package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrNoActiveStay: a room believed occupied has no open stay. This is a
	// hard error requiring manual reconciliation; the desk never fabricates a
	// synthetic stay for it.
	ErrNoActiveStay = errors.New("no active stay for room")

	// ErrRoomNotBookable: check-in requested for a room that is not both
	// available and clean (includes the duplicate-check-in case).
	ErrRoomNotBookable = errors.New("room is not bookable")

	// ErrRoomNotOccupied: checkout requested for a room without an open stay.
	ErrRoomNotOccupied = errors.New("room is not occupied")

	// ErrRoomOutOfService: the room is in maintenance; clicks are rejected.
	ErrRoomOutOfService = errors.New("room is out of service")

	// ErrSettlementInFlight: a checkout is committing; cancel and re-submit
	// are both refused until it finishes.
	ErrSettlementInFlight = errors.New("settlement in flight")

	// ErrStayNotSettleable: the draft has no store-assigned stay id, so there
	// is nothing to settle.
	ErrStayNotSettleable = errors.New("stay has no persisted id")

	ErrBadPaymentMethod = errors.New("unknown payment method")
)
