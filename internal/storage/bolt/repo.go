// Package bolt is a single-file embedded hotel store.
//
// Records are JSON values keyed by id. Name uniqueness is kept in a separate
// index bucket (name -> id) updated in the same transaction as the record,
// so it holds under concurrent writers. Queries scan the hotels bucket,
// which suits catalogs of a few thousand records.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/google/uuid"

	"hotel_listings/internal/domain"
)

var (
	hotelsBucket     = []byte("hotels")
	hotelNamesBucket = []byte("hotel_names")
	typesBucket      = []byte("hotel_types")
	typeNamesBucket  = []byte("hotel_type_names")
)

type hotelRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"hotelName"`
	TypeID      string         `json:"hotelType"`
	Address     domain.Address `json:"address"`
	Slug        string         `json:"slug"`
	Image       domain.Image   `json:"hotelImage"`
	Ranking     float64        `json:"ranking"`
	Description string         `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type Repo struct {
	db *bolt.DB
}

// Open opens (or creates) the database file at path and its buckets.
func Open(path string) (*Repo, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{hotelsBucket, hotelNamesBucket, typesBucket, typeNamesBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Repo{db: db}, nil
}

// Close releases the database file lock.
func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) Create(ctx context.Context, h *domain.Hotel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := toRecord(*h)
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt

	err := r.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket(hotelNamesBucket)
		if names.Get([]byte(rec.Name)) != nil {
			return domain.ErrDuplicateName
		}
		if err := names.Put([]byte(rec.Name), []byte(rec.ID)); err != nil {
			return err
		}
		return putJSON(tx.Bucket(hotelsBucket), rec.ID, rec)
	})
	if err != nil {
		return err
	}
	*h = fromRecord(rec)
	return nil
}

func (r *Repo) UpdateByID(ctx context.Context, id string, h domain.Hotel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		hotels := tx.Bucket(hotelsBucket)
		names := tx.Bucket(hotelNamesBucket)

		var existing hotelRecord
		if err := getJSON(hotels, id, &existing); err != nil {
			return err
		}
		if h.Name != existing.Name {
			if owner := names.Get([]byte(h.Name)); owner != nil && string(owner) != id {
				return domain.ErrDuplicateName
			}
			if err := names.Delete([]byte(existing.Name)); err != nil {
				return err
			}
			if err := names.Put([]byte(h.Name), []byte(id)); err != nil {
				return err
			}
		}

		rec := toRecord(h)
		rec.ID = id
		rec.CreatedAt = existing.CreatedAt
		rec.UpdatedAt = time.Now().UTC()
		return putJSON(hotels, id, rec)
	})
}

func (r *Repo) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		hotels := tx.Bucket(hotelsBucket)
		var existing hotelRecord
		if err := getJSON(hotels, id, &existing); err != nil {
			return err
		}
		if err := tx.Bucket(hotelNamesBucket).Delete([]byte(existing.Name)); err != nil {
			return err
		}
		return hotels.Delete([]byte(id))
	})
}

func (r *Repo) CreateType(ctx context.Context, t *domain.HotelType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := *t
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	err := r.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket(typeNamesBucket)
		key := []byte(strings.ToLower(rec.Name))
		if names.Get(key) != nil {
			return domain.ErrDuplicateName
		}
		if err := names.Put(key, []byte(rec.ID)); err != nil {
			return err
		}
		return putJSON(tx.Bucket(typesBucket), rec.ID, rec)
	})
	if err != nil {
		return err
	}
	*t = rec
	return nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (domain.Hotel, error) {
	if err := ctx.Err(); err != nil {
		return domain.Hotel{}, err
	}
	var rec hotelRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(hotelsBucket), id, &rec)
	})
	if err != nil {
		return domain.Hotel{}, err
	}
	return fromRecord(rec), nil
}

func (r *Repo) FindMany(ctx context.Context, f domain.HotelFilter) ([]domain.Hotel, error) {
	hs, err := r.scan(ctx, f)
	if err != nil {
		return nil, err
	}
	sortHotels(hs, domain.SortCreatedAt, false)
	return hs, nil
}

func (r *Repo) Paginate(ctx context.Context, f domain.HotelFilter, p domain.PageRequest) (domain.HotelPage, error) {
	hs, err := r.scan(ctx, f)
	if err != nil {
		return domain.HotelPage{}, err
	}
	sortHotels(hs, p.Sort, p.Desc)

	total := int64(len(hs))
	start := p.Offset()
	if start < 0 || start > len(hs) {
		start = len(hs)
	}
	end := len(hs)
	if p.Limit >= 0 && p.Limit < end-start {
		end = start + p.Limit
	}
	return domain.NewHotelPage(hs[start:end], total, p), nil
}

func (r *Repo) ResolveTypes(ctx context.Context, ids []string) (map[string]domain.HotelType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]domain.HotelType, len(ids))
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(typesBucket)
		for _, id := range ids {
			v := b.Get([]byte(id))
			if v == nil {
				continue
			}
			var t domain.HotelType
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			out[id] = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ListTypes(ctx context.Context) ([]domain.HotelType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []domain.HotelType{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(typesBucket).ForEach(func(_, v []byte) error {
			var t domain.HotelType
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			out = append(out, t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repo) scan(ctx context.Context, f domain.HotelFilter) ([]domain.Hotel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Hotel
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(hotelsBucket).ForEach(func(_, v []byte) error {
			var rec hotelRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if h := fromRecord(rec); matches(h, f) {
				out = append(out, h)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matches(h domain.Hotel, f domain.HotelFilter) bool {
	if len(f.IDs) > 0 && !contains(f.IDs, h.ID) {
		return false
	}
	if f.Name != "" && h.Name != f.Name {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(h.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if len(f.TypeIn) > 0 && !contains(f.TypeIn, h.TypeID) {
		return false
	}
	if f.ExcludeID != "" && h.ID == f.ExcludeID {
		return false
	}
	return true
}

func sortHotels(hs []domain.Hotel, key string, desc bool) {
	less := func(a, b domain.Hotel) int {
		switch key {
		case domain.SortName:
			return strings.Compare(a.Name, b.Name)
		case domain.SortRanking:
			switch {
			case a.Ranking < b.Ranking:
				return -1
			case a.Ranking > b.Ranking:
				return 1
			}
			return 0
		case domain.SortUpdatedAt:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(hs, func(i, j int) bool {
		c := less(hs[i], hs[j])
		if c == 0 {
			c = strings.Compare(hs[i].ID, hs[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func putJSON(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

func getJSON(b *bolt.Bucket, key string, dst any) error {
	v := b.Get([]byte(key))
	if v == nil {
		return domain.ErrNotFound
	}
	return json.Unmarshal(v, dst)
}

func toRecord(h domain.Hotel) hotelRecord {
	return hotelRecord{
		ID:          h.ID,
		Name:        h.Name,
		TypeID:      h.TypeID,
		Address:     h.Address,
		Slug:        h.Slug,
		Image:       h.Image,
		Ranking:     h.Ranking,
		Description: h.Description,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

func fromRecord(rec hotelRecord) domain.Hotel {
	return domain.Hotel{
		ID:          rec.ID,
		Name:        rec.Name,
		TypeID:      rec.TypeID,
		Address:     rec.Address,
		Slug:        rec.Slug,
		Image:       rec.Image,
		Ranking:     rec.Ranking,
		Description: rec.Description,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}
