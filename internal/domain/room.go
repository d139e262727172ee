package domain

// RoomStatus is the richer status enum the property store keeps. It is the
// source of truth; the grid's three-color model is a projection (DisplayStatus).
type RoomStatus string

const (
	StatusAvailable   RoomStatus = "available"
	StatusOccupied    RoomStatus = "occupied"
	StatusCleaning    RoomStatus = "cleaning"
	StatusMaintenance RoomStatus = "maintenance"
)

// CleaningStatus is orthogonal to RoomStatus: a room can be available and
// dirty at the same time, in which case it is not bookable until cleaned.
type CleaningStatus string

const (
	CleaningClean CleaningStatus = "clean"
	CleaningDirty CleaningStatus = "dirty"
)

// DisplayStatus is the collapsed ternary shown on the room grid. It is a pure
// projection; the underlying RoomStatus is never lost when persisting.
type DisplayStatus string

const (
	DisplayAvailable     DisplayStatus = "available"
	DisplayOccupied      DisplayStatus = "occupied"
	DisplayNeedsCleaning DisplayStatus = "needs_cleaning"
)

type Room struct {
	ID             string
	Number         int
	Status         RoomStatus
	CleaningStatus CleaningStatus
	BaseRate       float64
}

// FloorFromNumber derives the floor from a 3-digit room number: rooms
// 101-199 are floor 1, 201-299 floor 2, and so on. Numbers outside the
// 3-digit convention map to number/100 as well; callers seed rooms with
// 3-digit numbers.
func FloorFromNumber(number int) int { return number / 100 }

func (r Room) Floor() int { return FloorFromNumber(r.Number) }

// NeedsCleaning reports whether a click on this room should trigger cleaning.
// Dirty takes precedence over every other state.
func (r Room) NeedsCleaning() bool {
	return r.CleaningStatus == CleaningDirty || r.Status == StatusCleaning
}

// Bookable reports whether a fresh check-in may start on this room.
func (r Room) Bookable() bool {
	return r.Status == StatusAvailable && r.CleaningStatus == CleaningClean
}

// DisplayStatusFor collapses the richer status pair into the grid ternary.
// Dirty/cleaning wins, then occupied (maintenance renders as occupied since
// neither is bookable), then available.
func DisplayStatusFor(status RoomStatus, cleaning CleaningStatus) DisplayStatus {
	switch {
	case cleaning == CleaningDirty || status == StatusCleaning:
		return DisplayNeedsCleaning
	case status == StatusOccupied || status == StatusMaintenance:
		return DisplayOccupied
	default:
		return DisplayAvailable
	}
}

func (r Room) DisplayStatus() DisplayStatus {
	return DisplayStatusFor(r.Status, r.CleaningStatus)
}
