package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

type fakeTMDb struct {
	trending []Movie
	popular  []Movie
	details  map[int]Details
}

func (f *fakeTMDb) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/trending/movie/week", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "" {
			http.Error(w, "missing api key", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(listResponse{Results: f.trending})
	})
	mux.HandleFunc("/movie/popular", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(listResponse{Results: f.popular})
	})
	mux.HandleFunc("/movie/", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/movie/"))
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		d, ok := f.details[id]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(d)
	})
	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient("test-key", srv.URL)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func TestSelectForBreakdownPicksQualifyingTrending(t *testing.T) {
	fake := &fakeTMDb{
		trending: []Movie{
			{ID: 1, Title: "Old Classic", VoteAverage: 8.5, ReleaseDate: "1999-05-01"},
			{ID: 2, Title: "Low Rated", VoteAverage: 4.2, ReleaseDate: "2023-01-01"},
			{ID: 3, Title: "Recent Hit", VoteAverage: 7.1, ReleaseDate: "2023-06-15"},
		},
		details: map[int]Details{
			3: {ID: 3, Title: "Recent Hit", Genres: []Genre{{ID: 28, Name: "Action"}}},
		},
	}
	srv := fake.server(t)
	defer srv.Close()

	client := newTestClient(t, srv)
	filter := Filter{MinVoteAverage: 6.0, MinReleaseDate: "2020-01-01"}

	got, err := client.SelectForBreakdown(context.Background(), filter)
	if err != nil {
		t.Fatalf("SelectForBreakdown error: %v", err)
	}
	if got.ID != 3 {
		t.Errorf("selected movie ID = %d, want 3", got.ID)
	}
	if names := got.GenreNames(); len(names) != 1 || names[0] != "Action" {
		t.Errorf("GenreNames = %v, want [Action]", names)
	}
}

func TestSelectForBreakdownFallsBackToPopular(t *testing.T) {
	fake := &fakeTMDb{
		trending: []Movie{
			{ID: 1, Title: "Low Rated", VoteAverage: 3.0, ReleaseDate: "2024-01-01"},
		},
		popular: []Movie{
			{ID: 5, Title: "Popular Pick", VoteAverage: 7.8, ReleaseDate: "2022-03-04"},
		},
		details: map[int]Details{
			5: {ID: 5, Title: "Popular Pick"},
		},
	}
	srv := fake.server(t)
	defer srv.Close()

	client := newTestClient(t, srv)
	filter := Filter{MinVoteAverage: 6.0, MinReleaseDate: "2020-01-01"}

	got, err := client.SelectForBreakdown(context.Background(), filter)
	if err != nil {
		t.Fatalf("SelectForBreakdown error: %v", err)
	}
	if got.ID != 5 {
		t.Errorf("selected movie ID = %d, want 5", got.ID)
	}
}

func TestSelectForBreakdownFinalFallbackFirstTrending(t *testing.T) {
	fake := &fakeTMDb{
		trending: []Movie{
			{ID: 9, Title: "Only Option", VoteAverage: 2.0, ReleaseDate: "1980-01-01"},
		},
		popular: []Movie{
			{ID: 10, Title: "Also Bad", VoteAverage: 1.0, ReleaseDate: "1975-01-01"},
		},
		details: map[int]Details{
			9: {ID: 9, Title: "Only Option"},
		},
	}
	srv := fake.server(t)
	defer srv.Close()

	client := newTestClient(t, srv)
	filter := Filter{MinVoteAverage: 6.0, MinReleaseDate: "2020-01-01"}

	got, err := client.SelectForBreakdown(context.Background(), filter)
	if err != nil {
		t.Fatalf("SelectForBreakdown error: %v", err)
	}
	if got.ID != 9 {
		t.Errorf("selected movie ID = %d, want 9", got.ID)
	}
}

func TestSelectForBreakdownNoMovies(t *testing.T) {
	fake := &fakeTMDb{}
	srv := fake.server(t)
	defer srv.Close()

	client := newTestClient(t, srv)
	if _, err := client.SelectForBreakdown(context.Background(), Filter{}); err == nil {
		t.Error("expected error when no movies are available")
	}
}

func TestFilterMatches(t *testing.T) {
	filter := Filter{MinVoteAverage: 6.0, MinReleaseDate: "2020-01-01"}
	tests := []struct {
		name  string
		movie Movie
		want  bool
	}{
		{"qualifies", Movie{VoteAverage: 6.0, ReleaseDate: "2020-01-01"}, true},
		{"rating too low", Movie{VoteAverage: 5.9, ReleaseDate: "2024-01-01"}, false},
		{"too old", Movie{VoteAverage: 9.0, ReleaseDate: "2019-12-31"}, false},
		{"no release date", Movie{VoteAverage: 9.0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.matches(tt.movie); got != tt.want {
				t.Errorf("matches(%+v) = %v, want %v", tt.movie, got, tt.want)
			}
		})
	}
}

func TestReleaseYear(t *testing.T) {
	d := Details{ReleaseDate: "2023-06-15"}
	if got := d.ReleaseYear(); got != "2023" {
		t.Errorf("ReleaseYear = %q, want 2023", got)
	}
	empty := Details{}
	if got := empty.ReleaseYear(); got != "" {
		t.Errorf("ReleaseYear on empty date = %q, want empty", got)
	}
}
