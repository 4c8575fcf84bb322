package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"hotel_listings/internal/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 5
	DefaultOrder = "asc"
	MaxLimit     = 100

	listGenKey = "hotels:gen"
)

var sortKeys = map[string]bool{
	domain.SortCreatedAt: true,
	domain.SortUpdatedAt: true,
	domain.SortName:      true,
	domain.SortRanking:   true,
}

// ListQuery holds the raw list parameters as the client sent them.
type ListQuery struct {
	Page   int
	Limit  int
	Sort   string
	Order  string
	Search string
	Filter string
}

// Predicate builds the store filter and page request. The type clause is
// omitted entirely for an empty filter so it does not match zero records.
func (q ListQuery) Predicate() (domain.HotelFilter, domain.PageRequest) {
	if q.Order == "" {
		q.Order = DefaultOrder
	}
	pr := domain.PageRequest{Page: q.Page, Limit: q.Limit, Sort: q.Sort, Desc: q.Order != "asc"}
	if pr.Page < 1 {
		pr.Page = DefaultPage
	}
	if pr.Limit < 1 {
		pr.Limit = DefaultLimit
	}
	if pr.Limit > MaxLimit {
		pr.Limit = MaxLimit
	}
	// keep (Page-1)*Limit representable; such a page is past the end anyway
	if maxPage := math.MaxInt / pr.Limit; pr.Page > maxPage {
		pr.Page = maxPage
	}
	if !sortKeys[pr.Sort] {
		pr.Sort = domain.SortCreatedAt
	}

	f := domain.HotelFilter{NameContains: q.Search}
	if q.Filter != "" {
		for _, v := range strings.Split(q.Filter, ",") {
			if v = strings.TrimSpace(v); v != "" {
				f.TypeIn = append(f.TypeIn, v)
			}
		}
	}
	return f, pr
}

type QueryService struct {
	repo         domain.HotelRepository
	cache        domain.Cache
	cacheTTL     time.Duration
	storeTimeout time.Duration
}

func NewQueryService(r domain.HotelRepository, c domain.Cache, ttl, storeTimeout time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl, storeTimeout: storeTimeout}
}

// List paginates the predicate, then re-fetches the page's records by id
// with their type resolved, keeping the paginated order.
func (s *QueryService) List(ctx context.Context, lq ListQuery) (domain.HotelPage, error) {
	f, pr := lq.Predicate()
	key := s.listKey(ctx, f, pr)

	var page domain.HotelPage
	if s.cacheGet(ctx, key, &page) {
		return page, nil
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	page, err := s.repo.Paginate(ctx, f, pr)
	if err != nil {
		return domain.HotelPage{}, fmt.Errorf("paginate hotels: %w", err)
	}
	if page.TotalDocs == 0 {
		return domain.HotelPage{}, domain.ErrNotFound
	}
	if len(page.Items) > 0 {
		items, err := s.enrich(ctx, page.Items)
		if err != nil {
			return domain.HotelPage{}, err
		}
		page.Items = items
	}

	s.cacheSet(ctx, key, page)
	return page, nil
}

// Search is an unpaginated case-insensitive substring match on name.
func (s *QueryService) Search(ctx context.Context, name string) ([]domain.Hotel, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	hs, err := s.repo.FindMany(ctx, domain.HotelFilter{NameContains: name})
	if err != nil {
		return nil, fmt.Errorf("search hotels: %w", err)
	}
	if len(hs) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].Name < hs[j].Name })
	return s.resolve(ctx, hs)
}

func (s *QueryService) Get(ctx context.Context, id string) (domain.Hotel, error) {
	key := hotelKey(id)
	var h domain.Hotel
	if s.cacheGet(ctx, key, &h) {
		return h, nil
	}
	gen := s.generation(ctx)

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	h, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	out, err := s.resolve(ctx, []domain.Hotel{h})
	if err != nil {
		return domain.Hotel{}, err
	}
	// a write landed while we were reading; the record may already be stale
	if s.generation(ctx) == gen {
		s.cacheSet(ctx, key, out[0])
	}
	return out[0], nil
}

func (s *QueryService) ListTypes(ctx context.Context) ([]domain.HotelType, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.repo.ListTypes(ctx)
}

func (s *QueryService) enrich(ctx context.Context, page []domain.Hotel) ([]domain.Hotel, error) {
	ids := make([]string, len(page))
	for i, h := range page {
		ids[i] = h.ID
	}
	found, err := s.repo.FindMany(ctx, domain.HotelFilter{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("load page hotels: %w", err)
	}
	byID := make(map[string]domain.Hotel, len(found))
	for _, h := range found {
		byID[h.ID] = h
	}
	// records deleted between the two queries are dropped
	out := make([]domain.Hotel, 0, len(ids))
	for _, id := range ids {
		if h, ok := byID[id]; ok {
			out = append(out, h)
		}
	}
	return s.resolve(ctx, out)
}

// resolve attaches the referenced HotelType to each hotel. Dangling
// references leave Type nil.
func (s *QueryService) resolve(ctx context.Context, hs []domain.Hotel) ([]domain.Hotel, error) {
	seen := make(map[string]bool, len(hs))
	typeIDs := make([]string, 0, len(hs))
	for _, h := range hs {
		if h.TypeID != "" && !seen[h.TypeID] {
			seen[h.TypeID] = true
			typeIDs = append(typeIDs, h.TypeID)
		}
	}
	if len(typeIDs) == 0 {
		return hs, nil
	}
	types, err := s.repo.ResolveTypes(ctx, typeIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve hotel types: %w", err)
	}
	for i := range hs {
		if t, ok := types[hs[i].TypeID]; ok {
			hs[i].Type = &t
		}
	}
	return hs, nil
}

// listKey embeds the write generation so any create/update/delete
// invalidates every cached page at once.
func (s *QueryService) listKey(ctx context.Context, f domain.HotelFilter, pr domain.PageRequest) string {
	raw, _ := json.Marshal(listKeyParts{
		Page:   pr.Page,
		Limit:  pr.Limit,
		Sort:   pr.Sort,
		Desc:   pr.Desc,
		Search: f.NameContains,
		Types:  f.TypeIn,
	})
	sum := sha1.Sum(raw)
	return fmt.Sprintf("hotels:list:%d:%s", s.generation(ctx), hex.EncodeToString(sum[:]))
}

// listKeyParts is hashed as JSON so client text cannot collide across fields.
type listKeyParts struct {
	Page   int      `json:"p"`
	Limit  int      `json:"l"`
	Sort   string   `json:"s"`
	Desc   bool     `json:"d"`
	Search string   `json:"q"`
	Types  []string `json:"t"`
}

func (s *QueryService) generation(ctx context.Context) int64 {
	var gen int64
	if s.cache != nil {
		_, _ = s.cache.Get(ctx, listGenKey, &gen)
	}
	return gen
}

func (s *QueryService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, _ := s.cache.Get(ctx, key, dst)
	return ok
}

func (s *QueryService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
}

func hotelKey(id string) string { return "hotel:" + id }

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
