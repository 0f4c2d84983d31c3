package skyblock

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-key", 5*time.Second)
}

func TestGetAuctionsPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("API-Key"); got != "test-key" {
			t.Errorf("API-Key header = %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page param = %q, want 2", got)
		}
		w.Write([]byte(`{
			"success": true,
			"page": 2,
			"totalPages": 40,
			"totalAuctions": 39500,
			"auctions": [
				{"uuid": "a1", "auctioneer": "s1", "item_name": "Aspect of the End",
				 "tier": "RARE", "category": "weapon", "starting_bid": 150000,
				 "bin": true, "end": 4102444800000},
				{"uuid": "a2", "auctioneer": "s2", "item_name": "Zombie Heart",
				 "tier": "EPIC", "category": "armor", "starting_bid": 0,
				 "bin": false, "end": 4102444800000}
			]
		}`))
	})

	page, err := c.GetAuctionsPage(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetAuctionsPage: %v", err)
	}
	if page.Page != 2 || page.TotalPages != 40 {
		t.Errorf("page meta = %d/%d, want 2/40", page.Page, page.TotalPages)
	}
	// The zero-bid auction is dropped.
	if len(page.Listings) != 1 {
		t.Fatalf("len(Listings) = %d, want 1", len(page.Listings))
	}
	l := page.Listings[0]
	if l.ID != "a1" || l.Type != domain.ListingBIN || l.Ask != 150000 {
		t.Errorf("listing = %+v", l)
	}
	if l.ItemID != "ASPECT_OF_THE_END:RARE" {
		t.Errorf("ItemID = %q", l.ItemID)
	}
}

func TestGetAuctionsPageMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":      `{"success": tru`,
		"success false": `{"success": false, "cause": "Invalid API key"}`,
		"no pages":      `{"success": true, "page": 0, "totalPages": 0, "auctions": []}`,
		"absurd pages":  `{"success": true, "page": 0, "totalPages": 1125899906842624, "auctions": []}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			_, err := c.GetAuctionsPage(context.Background(), 0)
			if !errors.Is(err, domain.ErrMalformed) {
				t.Errorf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestGetAuctionsPageEmptyIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "page": 5, "totalPages": 6, "auctions": []}`))
	})
	page, err := c.GetAuctionsPage(context.Background(), 5)
	if err != nil {
		t.Fatalf("empty page must not be an error: %v", err)
	}
	if len(page.Listings) != 0 {
		t.Errorf("len(Listings) = %d, want 0", len(page.Listings))
	}
}

func TestDoGetStatusClassification(t *testing.T) {
	t.Run("server error is unavailable", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.GetBazaar(context.Background())
		if !errors.Is(err, domain.ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})

	t.Run("429 with retry-after", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := c.GetBazaar(context.Background())
		var ra *domain.RetryAfterError
		if !errors.As(err, &ra) {
			t.Fatalf("err = %v, want RetryAfterError", err)
		}
		if ra.After != 7*time.Second {
			t.Errorf("After = %v, want 7s", ra.After)
		}
		if !errors.Is(err, domain.ErrRateLimited) {
			t.Error("RetryAfterError should unwrap to ErrRateLimited")
		}
	})

	t.Run("403 is not retryable", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		_, err := c.GetBazaar(context.Background())
		if err == nil {
			t.Fatal("expected error")
		}
		if errors.Is(err, domain.ErrUnavailable) || errors.Is(err, domain.ErrRateLimited) {
			t.Errorf("403 should not map into the transient taxonomy, got %v", err)
		}
	})
}

func TestItemIDNormalization(t *testing.T) {
	tests := []struct {
		name, tier, want string
	}{
		{"Aspect of the Dragon", "LEGENDARY", "ASPECT_OF_THE_DRAGON:LEGENDARY"},
		{"Sharp Aspect of the Dragon", "LEGENDARY", "ASPECT_OF_THE_DRAGON:LEGENDARY"},
		{"Hyperion ✪✪✪✪✪", "MYTHIC", "HYPERION:MYTHIC"},
		{"Mad Redstone Engineer's Boots", "EPIC", "MAD_REDSTONE_ENGINEERS_BOOTS:EPIC"},
	}
	for _, tt := range tests {
		if got := itemID(tt.name, tt.tier); got != tt.want {
			t.Errorf("itemID(%q, %q) = %q, want %q", tt.name, tt.tier, got, tt.want)
		}
	}
}

func TestGetBazaar(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"products": {
				"ENCHANTED_DIAMOND": {
					"product_id": "ENCHANTED_DIAMOND",
					"quick_status": {"buyPrice": 825.3, "sellPrice": 801.0,
						"buyOrders": 42, "sellOrders": 31}
				}
			}
		}`))
	})

	book, err := c.GetBazaar(context.Background())
	if err != nil {
		t.Fatalf("GetBazaar: %v", err)
	}
	e, ok := book["ENCHANTED_DIAMOND"]
	if !ok {
		t.Fatal("ENCHANTED_DIAMOND missing from order book")
	}
	if e.BestSell != 825 || e.BestBuy != 801 {
		t.Errorf("entry = %+v", e)
	}
}
