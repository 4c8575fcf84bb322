// Package metered decorates a HotelRepository with per-operation store
// metrics and debug logs.
package metered

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_listings/internal/adapters/observability"
	"hotel_listings/internal/domain"
)

type Repo struct {
	next domain.HotelRepository
}

func Wrap(next domain.HotelRepository) *Repo { return &Repo{next: next} }

func observe(op string, start time.Time, err error) {
	dur := time.Since(start)
	observability.ObserveStore(op, err, dur)
	if status := observability.StoreStatus(err); status == "error" {
		log.Error().Err(err).Str("op", op).Dur("duration", dur).Msg("store_error")
	} else {
		log.Debug().Str("op", op).Str("status", status).Dur("duration", dur).Msg("store_op")
	}
}

func (r *Repo) Create(ctx context.Context, h *domain.Hotel) error {
	start := time.Now()
	err := r.next.Create(ctx, h)
	observe("create", start, err)
	return err
}

func (r *Repo) UpdateByID(ctx context.Context, id string, h domain.Hotel) error {
	start := time.Now()
	err := r.next.UpdateByID(ctx, id, h)
	observe("update", start, err)
	return err
}

func (r *Repo) DeleteByID(ctx context.Context, id string) error {
	start := time.Now()
	err := r.next.DeleteByID(ctx, id)
	observe("delete", start, err)
	return err
}

func (r *Repo) CreateType(ctx context.Context, t *domain.HotelType) error {
	start := time.Now()
	err := r.next.CreateType(ctx, t)
	observe("create_type", start, err)
	return err
}

func (r *Repo) FindByID(ctx context.Context, id string) (domain.Hotel, error) {
	start := time.Now()
	h, err := r.next.FindByID(ctx, id)
	observe("find_by_id", start, err)
	return h, err
}

func (r *Repo) FindMany(ctx context.Context, f domain.HotelFilter) ([]domain.Hotel, error) {
	start := time.Now()
	hs, err := r.next.FindMany(ctx, f)
	observe("find_many", start, err)
	return hs, err
}

func (r *Repo) Paginate(ctx context.Context, f domain.HotelFilter, p domain.PageRequest) (domain.HotelPage, error) {
	start := time.Now()
	page, err := r.next.Paginate(ctx, f, p)
	observe("paginate", start, err)
	return page, err
}

func (r *Repo) ResolveTypes(ctx context.Context, ids []string) (map[string]domain.HotelType, error) {
	start := time.Now()
	m, err := r.next.ResolveTypes(ctx, ids)
	observe("resolve_types", start, err)
	return m, err
}

func (r *Repo) ListTypes(ctx context.Context) ([]domain.HotelType, error) {
	start := time.Now()
	ts, err := r.next.ListTypes(ctx)
	observe("list_types", start, err)
	return ts, err
}
