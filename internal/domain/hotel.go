package domain

import "time"

type Address struct {
	Province      int    `json:"province"`
	District      int    `json:"district"`
	Ward          int    `json:"ward"`
	StreetAddress string `json:"street_address"`
}

type Image struct {
	Path string `json:"path"`
}

// Hotel is a stored listing. Type is only set on reads that resolve the
// TypeID reference.
type Hotel struct {
	ID          string
	Name        string
	TypeID      string
	Type        *HotelType
	Address     Address
	Slug        string
	Image       Image
	Ranking     float64
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type HotelType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HotelInput is the client-supplied body for create and update.
type HotelInput struct {
	Name        string       `json:"hotelName" validate:"required,max=255"`
	TypeID      string       `json:"hotelType" validate:"required"`
	Address     AddressInput `json:"address"`
	Image       ImageInput   `json:"hotelImage"`
	Ranking     *float64     `json:"ranking" validate:"required,gte=0,lte=5"`
	Description string       `json:"description" validate:"max=5000"`
}

type AddressInput struct {
	Province      int    `json:"province" validate:"required,gt=0"`
	District      int    `json:"district" validate:"required,gt=0"`
	Ward          int    `json:"ward" validate:"required,gt=0"`
	StreetAddress string `json:"street_address" validate:"required,max=255"`
}

type ImageInput struct {
	Path string `json:"path" validate:"required"`
}

type HotelTypeInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}
