package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionLineItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/sessions/cs_123/line_items" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test_123" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		fmt.Fprint(w, `{"object":"list","data":[{"id":"li_1","price":{"id":"price_coins_1"}},{"id":"li_2","price":{"id":"price_other"}}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_123")
	items, err := c.SessionLineItems(context.Background(), "cs_123")
	if err != nil {
		t.Fatalf("SessionLineItems() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Price.ID != "price_coins_1" {
		t.Errorf("items[0].Price.ID = %s", items[0].Price.ID)
	}
}

func TestSessionLineItemsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Invalid API Key provided"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_bad")
	_, err := c.SessionLineItems(context.Background(), "cs_123")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("SessionLineItems() error = %v, want ErrUpstream", err)
	}
}

func TestSessionLineItemsBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_123")
	_, err := c.SessionLineItems(context.Background(), "cs_123")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("SessionLineItems() error = %v, want ErrUpstream", err)
	}
}
