package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"hotel_listings/internal/app"
	"hotel_listings/internal/domain"
	"hotel_listings/internal/storage/bolt"
)

// ---- fakes ----

// fakeCache round-trips values through JSON like the Redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	hits  map[string]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]byte{}, hits: map[string]int{}}
}

// hitsWithPrefix counts cache hits on keys starting with prefix.
func (c *fakeCache) hitsWithPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, v := range c.hits {
		if strings.HasPrefix(k, prefix) {
			n += v
		}
	}
	return n
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	c.hits[key]++
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if b, ok := c.store[key]; ok {
		_ = json.Unmarshal(b, &n)
	}
	n++
	c.store[key] = []byte(fmt.Sprint(n))
	return n, nil
}

// failingRepo fails every read; embedded nil interface covers the rest.
type failingRepo struct {
	domain.HotelRepository
	err error
}

func (f failingRepo) FindMany(ctx context.Context, _ domain.HotelFilter) ([]domain.Hotel, error) {
	return nil, f.err
}

func (f failingRepo) Paginate(ctx context.Context, _ domain.HotelFilter, _ domain.PageRequest) (domain.HotelPage, error) {
	return domain.HotelPage{}, f.err
}

var errStoreDown = errors.New("store down")

// interleavingRepo runs duringFind inside FindByID, before the record is returned.
type interleavingRepo struct {
	domain.HotelRepository
	duringFind func()
}

func (r *interleavingRepo) FindByID(ctx context.Context, id string) (domain.Hotel, error) {
	if r.duringFind != nil {
		r.duringFind()
	}
	return r.HotelRepository.FindByID(ctx, id)
}

// ---- fixtures ----

type fixture struct {
	repo  *bolt.Repo
	cache *fakeCache
	q     *app.QueryService
	c     *app.CommandService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := bolt.Open(t.TempDir() + "/hotels.db")
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	cache := newFakeCache()
	return &fixture{
		repo:  repo,
		cache: cache,
		q:     app.NewQueryService(repo, cache, time.Minute, time.Second),
		c:     app.NewCommandService(repo, cache, time.Second),
	}
}

func (f *fixture) mustType(t *testing.T, name string) domain.HotelType {
	t.Helper()
	ht, err := f.c.CreateType(context.Background(), domain.HotelTypeInput{Name: name})
	if err != nil {
		t.Fatalf("create type %s: %v", name, err)
	}
	return ht
}

func (f *fixture) mustHotel(t *testing.T, name, typeID string) domain.Hotel {
	t.Helper()
	h, err := f.c.Create(context.Background(), input(name, typeID))
	if err != nil {
		t.Fatalf("create hotel %s: %v", name, err)
	}
	return h
}

func input(name, typeID string) domain.HotelInput {
	return domain.HotelInput{
		Name:   name,
		TypeID: typeID,
		Address: domain.AddressInput{
			Province:      1,
			District:      2,
			Ward:          3,
			StreetAddress: "12 Harbor Road",
		},
		Image:   domain.ImageInput{Path: "/img/" + name + ".jpg"},
		Ranking: pfloat(4),
	}
}

func pfloat(f float64) *float64 { return &f }
