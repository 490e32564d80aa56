package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func redditPost(title string, score, comments int, permalink string) string {
	return fmt.Sprintf(`{"data": {
		"title": %q, "selftext": "body", "author": "u1",
		"score": %d, "num_comments": %d,
		"created_utc": 1736290800, "permalink": %q, "subreddit": "stocks"
	}}`, title, score, comments, permalink)
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r/stocks+investing/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("User-Agent = %s", r.Header.Get("User-Agent"))
		}
		q := r.URL.Query().Get("q")
		fmt.Fprintf(w, `{"data": {"children": [%s, %s]}}`,
			redditPost(q+" post one", 120, 30, "/r/stocks/1-"+q),
			redditPost(q+" post two", 8, 2, "/r/stocks/2-"+q))
	}))
	defer server.Close()

	client := NewClient("id", "secret",
		WithBaseURL(server.URL),
		WithHTTPClient(http.DefaultClient),
		WithUserAgent("test-agent"),
		WithSubreddits([]string{"stocks", "investing"}))

	posts, err := client.Search(context.Background(), []string{"AAPL stock", "AAPL earnings"}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("got %d posts, want limit of 3", len(posts))
	}
	if posts[0].Platform != "reddit" {
		t.Errorf("Platform = %s", posts[0].Platform)
	}
	if posts[0].Engagement != 150 {
		t.Errorf("Engagement = %d, want score+comments = 150", posts[0].Engagement)
	}
	if posts[0].Subreddit != "stocks" {
		t.Errorf("Subreddit = %s", posts[0].Subreddit)
	}
	if posts[0].Text == "" {
		t.Error("classification text not populated")
	}
}

func TestSearchDeduplicates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Same permalink for every query
		fmt.Fprintf(w, `{"data": {"children": [%s]}}`, redditPost("dup", 10, 1, "/r/stocks/same"))
	}))
	defer server.Close()

	client := NewClient("id", "secret",
		WithBaseURL(server.URL),
		WithHTTPClient(http.DefaultClient))

	posts, err := client.Search(context.Background(), []string{"q1", "q2", "q3"}, 20)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("got %d posts, want 1 after dedup", len(posts))
	}
}

func TestSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient("id", "secret",
		WithBaseURL(server.URL),
		WithHTTPClient(http.DefaultClient))

	if _, err := client.Search(context.Background(), []string{"q"}, 10); err == nil {
		t.Error("expected error on 403 response")
	}
}
