package mysql

const insertHotelSQL = `
INSERT INTO hotels
  (id, hotel_name, hotel_type_id, province, district, ward, street_address,
   slug, image_path, ranking, description, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateHotelSQL = `
UPDATE hotels SET
  hotel_name     = ?,
  hotel_type_id  = ?,
  province       = ?,
  district       = ?,
  ward           = ?,
  street_address = ?,
  slug           = ?,
  image_path     = ?,
  ranking        = ?,
  description    = ?,
  updated_at     = ?
WHERE id = ?
`

const deleteHotelSQL = `DELETE FROM hotels WHERE id = ?`

const hotelExistsSQL = `SELECT 1 FROM hotels WHERE id = ?`

const insertTypeSQL = `
INSERT INTO hotel_types (id, name, description, created_at)
VALUES (?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Column order must match scanHotel.
const selectHotelsSQL = `
SELECT
  h.id,
  h.hotel_name,
  h.hotel_type_id,
  h.province,
  h.district,
  h.ward,
  h.street_address,
  h.slug,
  h.image_path,
  h.ranking,
  h.description,
  h.created_at,
  h.updated_at
FROM hotels h
`

const countHotelsSQL = `SELECT COUNT(*) FROM hotels h `

const selectTypesSQL = `
SELECT id, name, description, created_at
FROM hotel_types
`
