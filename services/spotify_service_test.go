package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// testSpotifyService returns a service pointed at the given server with a
// catalog token that never expires, so tests skip the token endpoint.
func testSpotifyService(server *httptest.Server) *SpotifyService {
	svc := NewSpotifyService(server.Client())
	svc.baseURL = server.URL
	svc.catalogToken = &oauth2.Token{
		AccessToken: "catalog-token",
		Expiry:      time.Now().Add(time.Hour),
	}
	svc.accountToken = &oauth2.Token{
		AccessToken: "account-token",
		Expiry:      time.Now().Add(time.Hour),
	}
	return svc
}

func TestRetryWait(t *testing.T) {
	if got := retryWait(0, "3"); got != 3*time.Second {
		t.Fatalf("Retry-After should win, got %s", got)
	}
	if got := retryWait(0, ""); got < spotifyBackoffBase {
		t.Fatalf("attempt 0 wait %s below base", got)
	}
	// The cap plus max jitter bounds every attempt.
	if got := retryWait(20, ""); got > spotifyBackoffLimit+spotifyBackoffLimit/2 {
		t.Fatalf("wait %s exceeds cap", got)
	}
	if got := retryWait(0, "garbage"); got < spotifyBackoffBase {
		t.Fatalf("unparseable Retry-After should fall back to backoff, got %s", got)
	}
}

func TestTrackRetriesOnRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(SpotifyTrack{ID: "abc", Name: "Test Track"})
	}))
	defer server.Close()

	svc := testSpotifyService(server)

	track, err := svc.Track(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if track.Name != "Test Track" {
		t.Fatalf("track name = %q", track.Name)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestTrackGivesUpAfterMaxRetries(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := testSpotifyService(server)

	if _, err := svc.Track(context.Background(), "abc"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != spotifyMaxRetries {
		t.Fatalf("calls = %d, want %d", calls, spotifyMaxRetries)
	}
}

func TestTrackRefreshesTokenOnce(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenServer.Close()

	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		seen = append(seen, auth)
		if auth != "Bearer fresh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(SpotifyTrack{ID: "abc"})
	}))
	defer server.Close()

	svc := testSpotifyService(server)
	svc.catalogToken = &oauth2.Token{AccessToken: "stale-token", Expiry: time.Now().Add(time.Hour)}
	svc.ccCfg.TokenURL = tokenServer.URL

	if _, err := svc.Track(context.Background(), "abc"); err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if len(seen) != 2 || seen[0] != "Bearer stale-token" || seen[1] != "Bearer fresh-token" {
		t.Fatalf("auth headers = %v", seen)
	}
}

func TestAddTracksToPlaylistBatches(t *testing.T) {
	var batches []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URIs []string `json:"uris"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad body: %v", err)
		}
		for _, uri := range body.URIs {
			if !strings.HasPrefix(uri, "spotify:track:") {
				t.Errorf("unexpected uri %q", uri)
			}
		}
		batches = append(batches, len(body.URIs))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	svc := testSpotifyService(server)

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprintf("id%d", i)
	}
	if err := svc.AddTracksToPlaylist(context.Background(), "pl1", ids); err != nil {
		t.Fatalf("AddTracksToPlaylist failed: %v", err)
	}
	if len(batches) != 3 || batches[0] != 100 || batches[1] != 100 || batches[2] != 50 {
		t.Fatalf("batches = %v", batches)
	}
}

func TestSpotifyTrackReleaseYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2006-03-17", 2006},
		{"2006-03", 2006},
		{"2006", 2006},
		{"", 0},
		{"n/a", 0},
	}
	for _, tt := range tests {
		track := SpotifyTrack{Album: SpotifyAlbum{ReleaseDate: tt.date}}
		if got := track.ReleaseYear(); got != tt.want {
			t.Errorf("ReleaseYear(%q) = %d, want %d", tt.date, got, tt.want)
		}
	}
}
