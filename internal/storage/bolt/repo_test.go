package bolt_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"hotel_listings/internal/domain"
	"hotel_listings/internal/storage/bolt"
)

func openRepo(t *testing.T) (*bolt.Repo, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hotels.db")
	r, err := bolt.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, path
}

func hotel(name, typeID string, ranking float64) domain.Hotel {
	return domain.Hotel{
		Name:    name,
		TypeID:  typeID,
		Address: domain.Address{Province: 1, District: 2, Ward: 3, StreetAddress: "1 Main St"},
		Image:   domain.Image{Path: "/img.jpg"},
		Ranking: ranking,
	}
}

func TestBolt_CreateFindUpdateDelete(t *testing.T) {
	ctx := context.Background()
	r, _ := openRepo(t)

	h := hotel("Alpha", "t1", 3)
	if err := r.Create(ctx, &h); err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.ID == "" || h.CreatedAt.IsZero() {
		t.Fatalf("id/timestamps not assigned: %+v", h)
	}

	dup := hotel("Alpha", "t1", 1)
	if err := r.Create(ctx, &dup); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("dup create: want ErrDuplicateName, got %v", err)
	}

	b := hotel("Bravo", "t1", 4)
	if err := r.Create(ctx, &b); err != nil {
		t.Fatalf("create bravo: %v", err)
	}

	upd := h
	upd.Name = "Bravo"
	if err := r.UpdateByID(ctx, h.ID, upd); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("rename onto bravo: want ErrDuplicateName, got %v", err)
	}
	upd.Name = "Alpha Prime"
	if err := r.UpdateByID(ctx, h.ID, upd); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := r.FindByID(ctx, h.ID)
	if err != nil || got.Name != "Alpha Prime" || !got.CreatedAt.Equal(h.CreatedAt) {
		t.Fatalf("after rename: %+v, %v", got, err)
	}
	// old name released
	again := hotel("Alpha", "t1", 2)
	if err := r.Create(ctx, &again); err != nil {
		t.Fatalf("reuse old name: %v", err)
	}

	if err := r.UpdateByID(ctx, "missing", upd); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update missing: want ErrNotFound, got %v", err)
	}
	if err := r.DeleteByID(ctx, h.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.DeleteByID(ctx, h.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete twice: want ErrNotFound, got %v", err)
	}
}

func TestBolt_PaginateSortAndFilter(t *testing.T) {
	ctx := context.Background()
	r, _ := openRepo(t)
	for _, h := range []domain.Hotel{
		hotel("Coral", "resort", 2),
		hotel("Amber", "resort", 5),
		hotel("Birch", "hostel", 4),
		hotel("Delta", "resort", 1),
	} {
		h := h
		if err := r.Create(ctx, &h); err != nil {
			t.Fatalf("create %s: %v", h.Name, err)
		}
	}

	page, err := r.Paginate(ctx, domain.HotelFilter{TypeIn: []string{"resort"}},
		domain.PageRequest{Page: 1, Limit: 2, Sort: domain.SortRanking, Desc: true})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if page.TotalDocs != 3 || page.TotalPages != 2 || len(page.Items) != 2 {
		t.Fatalf("descriptor: %+v", page)
	}
	if page.Items[0].Name != "Amber" || page.Items[1].Name != "Coral" {
		t.Fatalf("order: %s, %s", page.Items[0].Name, page.Items[1].Name)
	}

	page, err = r.Paginate(ctx, domain.HotelFilter{}, domain.PageRequest{Page: 5, Limit: 2, Sort: domain.SortName})
	if err != nil || page.TotalDocs != 4 || len(page.Items) != 0 {
		t.Fatalf("past the end: %+v, %v", page, err)
	}

	page, err = r.Paginate(ctx, domain.HotelFilter{}, domain.PageRequest{Page: math.MaxInt, Limit: 2, Sort: domain.SortName})
	if err != nil || page.TotalDocs != 4 || len(page.Items) != 0 {
		t.Fatalf("huge page: %+v, %v", page, err)
	}

	hs, err := r.FindMany(ctx, domain.HotelFilter{NameContains: "R"})
	if err != nil || len(hs) != 3 {
		t.Fatalf("contains r: %d, %v", len(hs), err)
	}
}

func TestBolt_TypesAndReopen(t *testing.T) {
	ctx := context.Background()
	r, path := openRepo(t)

	ty := domain.HotelType{Name: "Resort"}
	if err := r.CreateType(ctx, &ty); err != nil {
		t.Fatalf("create type: %v", err)
	}
	if err := r.CreateType(ctx, &domain.HotelType{Name: "resort"}); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("dup type: want ErrDuplicateName, got %v", err)
	}
	h := hotel("Keep Me", ty.ID, 3)
	if err := r.Create(ctx, &h); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r2, err := bolt.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()
	types, err := r2.ResolveTypes(ctx, []string{ty.ID, "nope"})
	if err != nil || len(types) != 1 || types[ty.ID].Name != "Resort" {
		t.Fatalf("resolve after reopen: %+v, %v", types, err)
	}
	if got, err := r2.FindByID(ctx, h.ID); err != nil || got.Name != "Keep Me" {
		t.Fatalf("find after reopen: %+v, %v", got, err)
	}
}

func TestBolt_CanceledContext(t *testing.T) {
	r, _ := openRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.FindMany(ctx, domain.HotelFilter{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
