//go:build integration || !unit

package mongo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.mongodb.org/mongo-driver/mongo"

	"hotel_listings/internal/domain"
	mongorepo "hotel_listings/internal/storage/mongo"
)

func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "7.0",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mongo: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	uri := fmt.Sprintf("mongodb://127.0.0.1:%s", resource.GetPort("27017/tcp"))
	var client *mongo.Client
	if err := pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var e error
		client, e = mongorepo.Connect(ctx, uri)
		return e
	}); err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client.Database("hotels_test")
}

func TestRepo_Mongo_CRUDAndQueries(t *testing.T) {
	ctx := context.Background()
	repo := mongorepo.New(startMongo(t))
	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	// idempotent
	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes again: %v", err)
	}

	resort := domain.HotelType{Name: "Resort"}
	if err := repo.CreateType(ctx, &resort); err != nil {
		t.Fatalf("CreateType: %v", err)
	}
	if err := repo.CreateType(ctx, &domain.HotelType{Name: "RESORT"}); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("CreateType dup: want ErrDuplicateName, got %v", err)
	}

	mk := func(name string, ranking float64) domain.Hotel {
		h := domain.Hotel{
			Name:    name,
			TypeID:  resort.ID,
			Address: domain.Address{Province: 1, District: 2, Ward: 3, StreetAddress: "1 Main St"},
			Slug:    name,
			Image:   domain.Image{Path: "/img.jpg"},
			Ranking: ranking,
		}
		if err := repo.Create(ctx, &h); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		return h
	}
	grand := mk("The Grand Hotel", 4.5)
	mk("Seaside Inn", 3)
	mk("Hotel (Annex)", 2)

	dup := domain.Hotel{Name: "Seaside Inn", TypeID: resort.ID}
	if err := repo.Create(ctx, &dup); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("Create dup: want ErrDuplicateName, got %v", err)
	}

	got, err := repo.FindByID(ctx, grand.ID)
	if err != nil || got.Name != "The Grand Hotel" || got.TypeID != resort.ID {
		t.Fatalf("FindByID: %+v, %v", got, err)
	}
	if _, err := repo.FindByID(ctx, "not-an-object-id"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("FindByID bad id: want ErrNotFound, got %v", err)
	}

	hs, err := repo.FindMany(ctx, domain.HotelFilter{NameContains: "hot"})
	if err != nil || len(hs) != 2 {
		t.Fatalf("NameContains hot: %+v, %v", hs, err)
	}
	// regex metacharacters are literal
	hs, err = repo.FindMany(ctx, domain.HotelFilter{NameContains: "(annex)"})
	if err != nil || len(hs) != 1 {
		t.Fatalf("literal regex search: %+v, %v", hs, err)
	}
	hs, err = repo.FindMany(ctx, domain.HotelFilter{Name: "Seaside Inn", ExcludeID: grand.ID})
	if err != nil || len(hs) != 1 {
		t.Fatalf("exact name with exclude: %+v, %v", hs, err)
	}

	page, err := repo.Paginate(ctx, domain.HotelFilter{TypeIn: []string{resort.ID}},
		domain.PageRequest{Page: 2, Limit: 2, Sort: domain.SortRanking, Desc: true})
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if page.TotalDocs != 3 || page.TotalPages != 2 || len(page.Items) != 1 || page.Items[0].Name != "Hotel (Annex)" {
		t.Fatalf("Paginate page 2: %+v", page)
	}

	types, err := repo.ResolveTypes(ctx, []string{resort.ID, "junk"})
	if err != nil || types[resort.ID].Name != "Resort" {
		t.Fatalf("ResolveTypes: %+v, %v", types, err)
	}

	grand.Name = "The Grand Hotel & Spa"
	if err := repo.UpdateByID(ctx, grand.ID, grand); err != nil {
		t.Fatalf("UpdateByID: %v", err)
	}
	grand.Name = "Seaside Inn"
	if err := repo.UpdateByID(ctx, grand.ID, grand); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("UpdateByID dup: want ErrDuplicateName, got %v", err)
	}

	if err := repo.DeleteByID(ctx, grand.ID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if err := repo.DeleteByID(ctx, grand.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("DeleteByID twice: want ErrNotFound, got %v", err)
	}
}
