package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyMaxRetries   = 5
	spotifyBackoffBase  = 500 * time.Millisecond
	spotifyBackoffLimit = 10 * time.Second
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"` // "2006", "2006-03" or "2006-03-17"
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// ReleaseYear parses the year out of the album release date, 0 if unknown.
func (t *SpotifyTrack) ReleaseYear() int {
	date := t.Album.ReleaseDate
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type playlistTracks struct {
	Total int                    `json:"total"`
	Next  *string                `json:"next"`
	Items []SpotifyPlaylistTrack `json:"items"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Public      bool           `json:"public"`
	Tracks      playlistTracks `json:"tracks"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifyService talks to the Spotify Web API on behalf of the product
// account. Catalog reads use a client-credentials token; playlist writes use
// the stored account refresh token. Both tokens refresh automatically, and
// every request retries on 429 with capped exponential backoff honoring
// Retry-After.
type SpotifyService struct {
	client  *http.Client
	baseURL string

	oauthCfg *oauth2.Config
	ccCfg    *clientcredentials.Config

	mu           sync.Mutex
	accountToken *oauth2.Token
	catalogToken *oauth2.Token
	refreshToken string
}

// NewSpotifyService constructs a SpotifyService from SPOTIFY_* environment
// variables. A nil client defaults to a 30 second timeout client.
func NewSpotifyService(client *http.Client) *SpotifyService {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	clientID := os.Getenv("SPOTIFY_CLIENT_ID")
	clientSecret := os.Getenv("SPOTIFY_CLIENT_SECRET")

	return &SpotifyService{
		client:  client,
		baseURL: spotifyBaseURL,
		oauthCfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  os.Getenv("SPOTIFY_REDIRECT_URI"),
			Scopes: []string{
				"playlist-modify-public",
				"playlist-modify-private",
				"playlist-read-private",
			},
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
		ccCfg: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyTokenURL,
		},
		refreshToken: os.Getenv("SPOTIFY_REFRESH_TOKEN"),
	}
}

// AuthURL returns the authorization URL used to (re)link the product account.
func (s *SpotifyService) AuthURL(state string) string {
	return s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for tokens and stores the refresh
// token for subsequent playlist writes.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("spotify code exchange failed: %w", err)
	}

	s.mu.Lock()
	s.accountToken = token
	if token.RefreshToken != "" {
		s.refreshToken = token.RefreshToken
	}
	s.mu.Unlock()

	return token, nil
}

// accountAccessToken returns a valid access token for the product account,
// refreshing when expired.
func (s *SpotifyService) accountAccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accountToken != nil && s.accountToken.Valid() {
		return s.accountToken.AccessToken, nil
	}
	if s.refreshToken == "" {
		return "", errors.New("spotify account not linked (SPOTIFY_REFRESH_TOKEN missing)")
	}

	source := s.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: s.refreshToken})
	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("spotify token refresh failed: %w", err)
	}

	s.accountToken = token
	if token.RefreshToken != "" {
		s.refreshToken = token.RefreshToken
	}
	return token.AccessToken, nil
}

// catalogAccessToken returns a valid client-credentials token.
func (s *SpotifyService) catalogAccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalogToken != nil && s.catalogToken.Valid() {
		return s.catalogToken.AccessToken, nil
	}

	token, err := s.ccCfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("spotify client credentials grant failed: %w", err)
	}
	s.catalogToken = token
	return token.AccessToken, nil
}

// invalidate drops the cached token so the next request refreshes it.
func (s *SpotifyService) invalidate(account bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account {
		s.accountToken = nil
	} else {
		s.catalogToken = nil
	}
}

// retryWait computes how long to sleep before the given retry attempt.
// A provider-supplied Retry-After wins; otherwise capped exponential backoff
// with jitter.
func retryWait(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	wait := spotifyBackoffBase << attempt
	if wait > spotifyBackoffLimit {
		wait = spotifyBackoffLimit
	}
	return wait + time.Duration(rand.Int63n(int64(wait)/2+1))
}

// doRequest performs an authenticated request against the Web API. account
// selects which token to use. On 401 the token is refreshed once; on 429 the
// request is retried up to spotifyMaxRetries times.
func (s *SpotifyService) doRequest(ctx context.Context, account bool, method, endpoint string, body, result interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	refreshed := false
	for attempt := 0; attempt < spotifyMaxRetries; attempt++ {
		var token string
		var err error
		if account {
			token, err = s.accountAccessToken(ctx)
		} else {
			token, err = s.catalogAccessToken(ctx)
		}
		if err != nil {
			return err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("spotify request failed: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized && !refreshed:
			resp.Body.Close()
			s.invalidate(account)
			refreshed = true
			continue

		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := resp.Header.Get("Retry-After")
			resp.Body.Close()
			wait := retryWait(attempt, retryAfter)
			log.Printf("spotify rate limited, retrying in %s (attempt %d)", wait, attempt+1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("spotify API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		}

		if result != nil {
			err = json.NewDecoder(resp.Body).Decode(result)
		}
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode spotify response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("spotify request to %s gave up after %d rate limit retries", endpoint, spotifyMaxRetries)
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	var track SpotifyTrack
	if err := s.doRequest(ctx, false, http.MethodGet, "/tracks/"+trackID, nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// SeveralTracks retrieves up to 50 tracks in one call.
func (s *SpotifyService) SeveralTracks(ctx context.Context, trackIDs []string) ([]SpotifyTrack, error) {
	if len(trackIDs) == 0 {
		return nil, errors.New("no track IDs provided")
	}
	if len(trackIDs) > 50 {
		return nil, errors.New("maximum 50 track IDs allowed")
	}

	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}
	endpoint := "/tracks?ids=" + url.QueryEscape(strings.Join(trackIDs, ","))
	if err := s.doRequest(ctx, false, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return response.Tracks, nil
}

// SearchTracks searches the catalog for tracks matching the query.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	endpoint := fmt.Sprintf("/search?type=track&q=%s&limit=%d", url.QueryEscape(query), limit)
	if err := s.doRequest(ctx, false, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return response.Tracks.Items, nil
}

// Playlist retrieves a playlist with its first page of tracks.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, false, http.MethodGet, "/playlists/"+playlistID, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistTracks retrieves all tracks of a playlist, following pagination.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]SpotifyPlaylistTrack, error) {
	var all []SpotifyPlaylistTrack
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=100", playlistID)

	for endpoint != "" {
		var page playlistTracks
		if err := s.doRequest(ctx, false, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)

		endpoint = ""
		if page.Next != nil {
			// The API returns an absolute URL for the next page.
			endpoint = strings.TrimPrefix(*page.Next, s.baseURL)
		}
	}

	return all, nil
}

// CreatePlaylist creates a playlist under the product account.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*SpotifyPlaylist, error) {
	userID := os.Getenv("SPOTIFY_ACCOUNT_USER_ID")
	if userID == "" {
		return nil, errors.New("SPOTIFY_ACCOUNT_USER_ID not configured")
	}

	body := map[string]interface{}{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", userID)
	if err := s.doRequest(ctx, true, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracksToPlaylist appends tracks to a playlist in batches of 100.
func (s *SpotifyService) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	for start := 0; start < len(trackIDs); start += 100 {
		end := start + 100
		if end > len(trackIDs) {
			end = len(trackIDs)
		}

		uris := make([]string, 0, end-start)
		for _, id := range trackIDs[start:end] {
			uris = append(uris, "spotify:track:"+id)
		}

		body := map[string]interface{}{"uris": uris}
		endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
		if err := s.doRequest(ctx, true, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}
	return nil
}
