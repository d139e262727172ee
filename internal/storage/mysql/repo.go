package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"hotel_frontdesk/internal/domain"
)

// Store is the property-management side of the house: the authoritative home
// of rooms, stays, snack inventory and receipts. It implements domain.Backend
// so the desk can run against it directly, without a remote API in between.
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

func parseID(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad id %q", domain.ErrNotFound, s)
	}
	return n, nil
}

func formatID(n int64) string { return strconv.FormatInt(n, 10) }

func (s *Store) ListRoomsByFloor(ctx context.Context) (map[int][]domain.Room, error) {
	rows, err := s.db.QueryContext(ctx, listRoomsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int][]domain.Room)
	for rows.Next() {
		var (
			id       int64
			number   int
			status   string
			cleaning string
			rate     sql.NullFloat64
		)
		if err := rows.Scan(&id, &number, &status, &cleaning, &rate); err != nil {
			return nil, err
		}
		r := domain.Room{
			ID:             formatID(id),
			Number:         number,
			Status:         domain.RoomStatus(status),
			CleaningStatus: domain.CleaningStatus(cleaning),
		}
		if rate.Valid {
			r.BaseRate = rate.Float64
		}
		out[r.Floor()] = append(out[r.Floor()], r)
	}
	return out, rows.Err()
}

func (s *Store) RoomRateForFloor(ctx context.Context, floor int) (float64, error) {
	var rate float64
	err := s.db.QueryRowContext(ctx, floorRateSQL, floor).Scan(&rate)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: no rate for floor %d", domain.ErrNotFound, floor)
	}
	if err != nil {
		return 0, err
	}
	return rate, nil
}

func (s *Store) ListSnackCategories(ctx context.Context) ([]domain.SnackCategory, error) {
	rows, err := s.db.QueryContext(ctx, listCategoriesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SnackCategory
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out = append(out, domain.SnackCategory{ID: formatID(id), Name: name})
	}
	return out, rows.Err()
}

func (s *Store) ListSnackItems(ctx context.Context) ([]domain.SnackItem, error) {
	rows, err := s.db.QueryContext(ctx, listSnackItemsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SnackItem
	for rows.Next() {
		var (
			id         int64
			name       string
			price      float64
			categoryID sql.NullInt64
			stock      int
			desc       sql.NullString
		)
		if err := rows.Scan(&id, &name, &price, &categoryID, &stock, &desc); err != nil {
			return nil, err
		}
		it := domain.SnackItem{ID: formatID(id), Name: name, Price: price, Stock: stock}
		if categoryID.Valid {
			it.CategoryID = formatID(categoryID.Int64)
		}
		if desc.Valid {
			it.Description = desc.String
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// SubmitCheckIn creates an open stay transactionally. The room row is locked
// first; a room that is not both available and clean rejects the check-in,
// which is what makes a duplicate submission safe to retry.
func (s *Store) SubmitCheckIn(ctx context.Context, draft domain.StayDraft, guest domain.Guest, snacks []domain.SnackLine) (domain.Stay, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Stay{}, err
	}
	defer tx.Rollback()

	var (
		roomID   int64
		number   int
		status   string
		cleaning string
	)
	err = tx.QueryRowContext(ctx, roomByNumberForUpdateSQL, draft.RoomNumber).
		Scan(&roomID, &number, &status, &cleaning)
	if err == sql.ErrNoRows {
		return domain.Stay{}, fmt.Errorf("%w: room %d", domain.ErrNotFound, draft.RoomNumber)
	}
	if err != nil {
		return domain.Stay{}, err
	}
	if domain.RoomStatus(status) != domain.StatusAvailable || domain.CleaningStatus(cleaning) != domain.CleaningClean {
		return domain.Stay{}, fmt.Errorf("%w: room %d is %s/%s", domain.ErrRoomNotBookable, number, status, cleaning)
	}

	total := draft.RoomPrice
	for _, l := range snacks {
		total += l.UnitPrice * float64(l.Quantity)
	}

	res, err := tx.ExecContext(ctx, insertStaySQL,
		roomID, number,
		guest.FullName, nullStr(guest.DocumentType), guest.DocumentNumber,
		nullStr(guest.Phone), nullStr(guest.Email),
		draft.RoomPrice, total,
	)
	if err != nil {
		return domain.Stay{}, err
	}
	stayID, err := res.LastInsertId()
	if err != nil {
		return domain.Stay{}, err
	}

	if err := s.insertSnacks(ctx, tx, stayID, snacks); err != nil {
		return domain.Stay{}, err
	}

	if _, err := tx.ExecContext(ctx, setRoomStatusSQL, domain.StatusOccupied, cleaning, roomID); err != nil {
		return domain.Stay{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Stay{}, err
	}

	return domain.Stay{
		ID:         formatID(stayID),
		RoomID:     formatID(roomID),
		RoomNumber: number,
		Guest:      guest,
		RoomPrice:  draft.RoomPrice,
		Snacks:     snacks,
		Total:      total,
	}, nil
}

// AddStayExtras appends snack lines to an open stay and bumps its total.
func (s *Store) AddStayExtras(ctx context.Context, stayID string, snacks []domain.SnackLine) (domain.Stay, error) {
	id, err := parseID(stayID)
	if err != nil {
		return domain.Stay{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Stay{}, err
	}
	defer tx.Rollback()

	stay, err := scanStay(tx.QueryRowContext(ctx, stayByIDForUpdateSQL, id))
	if err == sql.ErrNoRows {
		return domain.Stay{}, fmt.Errorf("%w: stay %s", domain.ErrNoActiveStay, stayID)
	}
	if err != nil {
		return domain.Stay{}, err
	}

	if err := s.insertSnacks(ctx, tx, id, snacks); err != nil {
		return domain.Stay{}, err
	}

	var extra float64
	for _, l := range snacks {
		extra += l.UnitPrice * float64(l.Quantity)
	}
	if _, err := tx.ExecContext(ctx, addToStayTotalSQL, extra, id); err != nil {
		return domain.Stay{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Stay{}, err
	}
	stay.Total += extra
	stay.Snacks = append(stay.Snacks, snacks...)
	return stay, nil
}

// SubmitCheckOut settles the room's open stay: writes the receipt, closes the
// stay and flips the room to available but dirty, so the next click on it
// triggers cleaning.
func (s *Store) SubmitCheckOut(ctx context.Context, roomNumber int, method domain.PaymentMethod) (domain.Receipt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Receipt{}, err
	}
	defer tx.Rollback()

	var (
		roomID   int64
		number   int
		status   string
		cleaning string
	)
	err = tx.QueryRowContext(ctx, roomByNumberForUpdateSQL, roomNumber).
		Scan(&roomID, &number, &status, &cleaning)
	if err == sql.ErrNoRows {
		return domain.Receipt{}, fmt.Errorf("%w: room %d", domain.ErrNotFound, roomNumber)
	}
	if err != nil {
		return domain.Receipt{}, err
	}

	stay, err := scanStay(tx.QueryRowContext(ctx, openStayForUpdateSQL, roomNumber))
	if err == sql.ErrNoRows {
		return domain.Receipt{}, fmt.Errorf("%w: room %d", domain.ErrRoomNotOccupied, roomNumber)
	}
	if err != nil {
		return domain.Receipt{}, err
	}

	stayID, err := parseID(stay.ID)
	if err != nil {
		return domain.Receipt{}, err
	}

	if _, err := tx.ExecContext(ctx, insertReceiptSQL, stayID, number, stay.Guest.FullName, stay.Total, string(method)); err != nil {
		return domain.Receipt{}, err
	}
	if _, err := tx.ExecContext(ctx, closeStaySQL, stayID); err != nil {
		return domain.Receipt{}, err
	}
	if _, err := tx.ExecContext(ctx, setRoomStatusSQL, domain.StatusAvailable, domain.CleaningDirty, roomID); err != nil {
		return domain.Receipt{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Receipt{}, err
	}

	return domain.Receipt{
		StayID:     stay.ID,
		RoomNumber: number,
		GuestName:  stay.Guest.FullName,
		Total:      stay.Total,
		Method:     method,
	}, nil
}

func (s *Store) MarkRoomClean(ctx context.Context, roomID string) (domain.Room, error) {
	id, err := parseID(roomID)
	if err != nil {
		return domain.Room{}, err
	}
	if _, err := s.db.ExecContext(ctx, markCleanSQL, id); err != nil {
		return domain.Room{}, err
	}

	var (
		number   int
		status   string
		cleaning string
	)
	err = s.db.QueryRowContext(ctx, roomByIDSQL, id).Scan(&id, &number, &status, &cleaning)
	if err == sql.ErrNoRows {
		return domain.Room{}, fmt.Errorf("%w: room id %s", domain.ErrNotFound, roomID)
	}
	if err != nil {
		return domain.Room{}, err
	}
	return domain.Room{
		ID:             formatID(id),
		Number:         number,
		Status:         domain.RoomStatus(status),
		CleaningStatus: domain.CleaningStatus(cleaning),
	}, nil
}

func (s *Store) ActiveStayForRoom(ctx context.Context, roomNumber int) (domain.Stay, error) {
	stay, err := scanStay(s.db.QueryRowContext(ctx, openStaySQL, roomNumber))
	if err == sql.ErrNoRows {
		return domain.Stay{}, fmt.Errorf("%w: room %d", domain.ErrNoActiveStay, roomNumber)
	}
	if err != nil {
		return domain.Stay{}, err
	}

	stayID, err := parseID(stay.ID)
	if err != nil {
		return domain.Stay{}, err
	}
	rows, err := s.db.QueryContext(ctx, staySnacksSQL, stayID)
	if err != nil {
		return domain.Stay{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			itemID    int64
			name      string
			unitPrice float64
			quantity  int
		)
		if err := rows.Scan(&itemID, &name, &unitPrice, &quantity); err != nil {
			return domain.Stay{}, err
		}
		stay.Snacks = append(stay.Snacks, domain.SnackLine{
			ItemID:    formatID(itemID),
			Name:      name,
			UnitPrice: unitPrice,
			Quantity:  quantity,
		})
	}
	return stay, rows.Err()
}

// ---- helpers ----

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertSnacks(ctx context.Context, tx execer, stayID int64, snacks []domain.SnackLine) error {
	for _, l := range snacks {
		itemID, err := parseID(l.ItemID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertStaySnackSQL, stayID, itemID, l.Name, l.UnitPrice, l.Quantity); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, decrementStockSQL, l.Quantity, itemID); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStay(row rowScanner) (domain.Stay, error) {
	var (
		id        int64
		roomID    int64
		st        domain.Stay
		docType   sql.NullString
		phone     sql.NullString
		email     sql.NullString
		checkedIn sql.NullTime
	)
	err := row.Scan(
		&id, &roomID, &st.RoomNumber,
		&st.Guest.FullName, &docType, &st.Guest.DocumentNumber,
		&phone, &email, &st.RoomPrice, &st.Total, &checkedIn,
	)
	if err != nil {
		return domain.Stay{}, err
	}
	st.ID = formatID(id)
	st.RoomID = formatID(roomID)
	if docType.Valid {
		st.Guest.DocumentType = docType.String
	}
	if phone.Valid {
		st.Guest.Phone = phone.String
	}
	if email.Valid {
		st.Guest.Email = email.String
	}
	if checkedIn.Valid {
		st.CheckedInAt = checkedIn.Time
	}
	return st, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
