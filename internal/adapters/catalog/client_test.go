package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hotel_listings/internal/adapters/catalog"
)

func TestClient_FetchRecords_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("X-API-Key = %q", got)
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"hotelName":"Sunrise"},{"hotelName":"Dusk"}]`))
		}
	}))
	defer ts.Close()

	cl := catalog.New("test-key", 100)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	recs, err := cl.FetchRecords(ctx, ts.URL+"/hotels")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(recs) != 2 || recs[0]["hotelName"] != "Sunrise" {
		t.Fatalf("unexpected payload: %+v", recs)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_FetchRecords_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl := catalog.New("", 100)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := cl.FetchRecords(ctx, ts.URL); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDecodeRecords_Shapes(t *testing.T) {
	cases := map[string]string{
		"array":  `[{"hotelName":"A"}]`,
		"data":   `{"data":[{"hotelName":"A"}]}`,
		"hotels": `{"hotels":[{"hotelName":"A"}]}`,
	}
	for name, body := range cases {
		recs, err := catalog.DecodeRecords([]byte(body))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(recs) != 1 || recs[0]["hotelName"] != "A" {
			t.Fatalf("%s: unexpected %+v", name, recs)
		}
	}
	if _, err := catalog.DecodeRecords([]byte(`{"other":1}`)); err == nil {
		t.Fatalf("expected error for object without records")
	}
}
