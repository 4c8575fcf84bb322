package domain

import (
	"context"
	"math"
)

type HotelRepository interface {
	// Write paths
	Create(ctx context.Context, h *Hotel) error
	UpdateByID(ctx context.Context, id string, h Hotel) error
	DeleteByID(ctx context.Context, id string) error
	CreateType(ctx context.Context, t *HotelType) error

	// Read paths
	FindByID(ctx context.Context, id string) (Hotel, error)
	FindMany(ctx context.Context, f HotelFilter) ([]Hotel, error)
	Paginate(ctx context.Context, f HotelFilter, p PageRequest) (HotelPage, error)
	ResolveTypes(ctx context.Context, ids []string) (map[string]HotelType, error)
	ListTypes(ctx context.Context) ([]HotelType, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
}

// HotelFilter is the store predicate. Zero-valued fields do not constrain
// the result; an empty TypeIn slice means "any type".
type HotelFilter struct {
	IDs          []string
	Name         string // exact, case-sensitive
	NameContains string // case-insensitive substring, matched literally
	TypeIn       []string
	ExcludeID    string
}

// Sort keys accepted by the stores.
const (
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
	SortName      = "hotelName"
	SortRanking   = "ranking"
)

type PageRequest struct {
	Page  int
	Limit int
	Sort  string
	Desc  bool
}

// HotelPage is a page descriptor plus the page-local records.
type HotelPage struct {
	Items      []Hotel
	TotalDocs  int64
	Limit      int
	Page       int
	TotalPages int
}

// NewHotelPage fills TotalPages from the total count.
func NewHotelPage(items []Hotel, total int64, p PageRequest) HotelPage {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return HotelPage{Items: items, TotalDocs: total, Limit: p.Limit, Page: p.Page, TotalPages: pages}
}

// Offset is the number of records skipped before this page. It saturates
// at math.MaxInt instead of overflowing.
func (p PageRequest) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}
