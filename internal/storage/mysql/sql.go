package mysql

const listRoomsSQL = `
SELECT
  r.id,
  r.number,
  r.status,
  r.cleaning_status,
  f.rate
FROM rooms r
LEFT JOIN floor_rates f
  ON f.floor = FLOOR(r.number / 100)
ORDER BY r.number
`

const roomByNumberForUpdateSQL = `
SELECT id, number, status, cleaning_status
FROM rooms
WHERE number = ?
FOR UPDATE
`

const roomByIDSQL = `
SELECT id, number, status, cleaning_status
FROM rooms
WHERE id = ?
`

const floorRateSQL = `
SELECT rate FROM floor_rates WHERE floor = ?
`

const listCategoriesSQL = `
SELECT id, name FROM snack_categories ORDER BY name
`

const listSnackItemsSQL = `
SELECT id, name, price, category_id, stock, description
FROM snack_items
ORDER BY name
`

const insertStaySQL = `
INSERT INTO stays
  (room_id, room_number, guest_full_name, guest_document_type,
   guest_document_number, guest_phone, guest_email, room_price, total)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertStaySnackSQL = `
INSERT INTO stay_snacks (stay_id, item_id, name, unit_price, quantity)
VALUES (?, ?, ?, ?, ?)
`

// Stock never goes below zero; the catalog display is informational only.
const decrementStockSQL = `
UPDATE snack_items SET stock = GREATEST(stock - ?, 0) WHERE id = ?
`

const setRoomStatusSQL = `
UPDATE rooms SET status = ?, cleaning_status = ? WHERE id = ?
`

const openStayForUpdateSQL = `
SELECT id, room_id, room_number, guest_full_name, guest_document_type,
       guest_document_number, guest_phone, guest_email, room_price, total,
       checked_in_at
FROM stays
WHERE room_number = ? AND open = 1
ORDER BY checked_in_at DESC, id DESC
LIMIT 1
FOR UPDATE
`

const openStaySQL = `
SELECT id, room_id, room_number, guest_full_name, guest_document_type,
       guest_document_number, guest_phone, guest_email, room_price, total,
       checked_in_at
FROM stays
WHERE room_number = ? AND open = 1
ORDER BY checked_in_at DESC, id DESC
LIMIT 1
`

const stayByIDForUpdateSQL = `
SELECT id, room_id, room_number, guest_full_name, guest_document_type,
       guest_document_number, guest_phone, guest_email, room_price, total,
       checked_in_at
FROM stays
WHERE id = ? AND open = 1
FOR UPDATE
`

const staySnacksSQL = `
SELECT item_id, name, unit_price, quantity
FROM stay_snacks
WHERE stay_id = ?
ORDER BY id
`

const addToStayTotalSQL = `
UPDATE stays SET total = total + ? WHERE id = ?
`

const closeStaySQL = `
UPDATE stays SET open = 0, checked_out_at = CURRENT_TIMESTAMP WHERE id = ?
`

const insertReceiptSQL = `
INSERT INTO receipts (stay_id, room_number, guest_name, total, payment_method)
VALUES (?, ?, ?, ?, ?)
`

const markCleanSQL = `
UPDATE rooms
SET cleaning_status = 'clean',
    status = IF(status = 'cleaning', 'available', status)
WHERE id = ?
`
