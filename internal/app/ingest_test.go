package app_test

import (
	"context"
	"errors"
	"testing"

	"hotel_listings/internal/app"
	"hotel_listings/internal/domain"
)

func TestMapCatalogRecord_Aliases(t *testing.T) {
	rec := map[string]any{
		"name":     "Harbor View",
		"category": "Boutique",
		"address": map[string]any{
			"province": 79.0,
			"district": "760",
			"ward":     26734,
			"street":   "1 Quay St",
		},
		"thumbnail":         "/img/harbor.jpg",
		"rating":            "4,5",
		"descreiptionHotel": "By the water",
	}
	in := app.MapCatalogRecord(rec)

	if in.Name != "Harbor View" || in.TypeID != "Boutique" {
		t.Fatalf("name/type: %+v", in)
	}
	if in.Address.Province != 79 || in.Address.District != 760 || in.Address.Ward != 26734 || in.Address.StreetAddress != "1 Quay St" {
		t.Fatalf("address: %+v", in.Address)
	}
	if in.Image.Path != "/img/harbor.jpg" || in.Description != "By the water" {
		t.Fatalf("image/description: %+v", in)
	}
	if in.Ranking == nil || *in.Ranking != 4.5 {
		t.Fatalf("ranking: %v", in.Ranking)
	}
}

func TestMapCatalogRecord_MissingRanking(t *testing.T) {
	if in := app.MapCatalogRecord(map[string]any{"hotelName": "X"}); in.Ranking != nil {
		t.Fatalf("ranking should stay nil, got %v", *in.Ranking)
	}
}

func record(name, typeRef string) map[string]any {
	return map[string]any{
		"hotelName": name,
		"hotelType": typeRef,
		"address": map[string]any{
			"province":       1.0,
			"district":       2.0,
			"ward":           3.0,
			"street_address": "5 Main St",
		},
		"hotelImage": map[string]any{"path": "/img/x.jpg"},
		"ranking":    3.0,
	}
}

func TestIngestRecord_ResolvesTypesByNameOrID(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	existing := fx.mustType(t, "Hostel")
	ing := app.NewIngestionService(fx.c, fx.repo)

	a, err := ing.IngestRecord(ctx, record("Alpha", "Resort"))
	if err != nil {
		t.Fatalf("ingest alpha: %v", err)
	}
	b, err := ing.IngestRecord(ctx, record("Bravo", "resort"))
	if err != nil {
		t.Fatalf("ingest bravo: %v", err)
	}
	if a.TypeID == "" || a.TypeID != b.TypeID {
		t.Fatalf("type names should resolve to one type: %q vs %q", a.TypeID, b.TypeID)
	}

	c, err := ing.IngestRecord(ctx, record("Charlie", existing.ID))
	if err != nil {
		t.Fatalf("ingest charlie: %v", err)
	}
	if c.TypeID != existing.ID {
		t.Fatalf("type id ref: got %q want %q", c.TypeID, existing.ID)
	}
	d, err := ing.IngestRecord(ctx, record("Delta", "HOSTEL"))
	if err != nil || d.TypeID != existing.ID {
		t.Fatalf("existing type by name: %q, %v", d.TypeID, err)
	}

	ts, _ := fx.q.ListTypes(ctx)
	if len(ts) != 2 {
		t.Fatalf("want 2 types, got %+v", ts)
	}

	if _, err := ing.IngestRecord(ctx, record("Alpha", "Resort")); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("re-ingest: want ErrDuplicateName, got %v", err)
	}
}

func TestIngestRecord_InvalidRecord(t *testing.T) {
	fx := newFixture(t)
	ing := app.NewIngestionService(fx.c, fx.repo)

	_, err := ing.IngestRecord(context.Background(), map[string]any{"hotelName": "Lonely"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}
