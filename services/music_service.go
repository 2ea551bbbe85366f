package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"tunecards-api/config"
	"tunecards-api/models"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	discogsBaseURL     = "https://api.discogs.com"
	musicBrainzBaseURL = "https://musicbrainz.org/ws/2"
	wikipediaBaseURL   = "https://en.wikipedia.org/api/rest_v1"
	openPerplexBaseURL = "https://openperplex.p.rapidapi.com"

	// Estimator weights. The AI answer has proven the most reliable single
	// source; OpenPerplex the least.
	weightAI      = 3.0
	weightDiscogs = 2.0
	weightMB      = 2.0
	weightSpotify = 2.0
	weightPerplex = 1.0
)

// YearCandidate is one provider's answer for a track's release year.
type YearCandidate struct {
	Source string
	Year   int
	Weight float64
}

// EstimateReleaseYear reduces provider answers to a single year:
//   - the base estimate is the weighted mean rounded to the nearest year
//   - if the candidates already agree (population stddev <= 1) the minimum
//     candidate wins, since the earliest pressing is what collectors expect
//   - with 3+ candidates, a single source deviating more than 2x stddev from
//     the weighted mean is dropped and the mean recomputed
//   - the Spotify album year is an upper bound: later estimates clamp to it
//
// ok is false when no candidate carries a usable year.
func EstimateReleaseYear(candidates []YearCandidate, spotifyYear int) (year int, ok bool) {
	usable := make([]YearCandidate, 0, len(candidates)+1)
	for _, c := range candidates {
		if c.Year > 0 {
			usable = append(usable, c)
		}
	}
	if spotifyYear > 0 {
		usable = append(usable, YearCandidate{Source: "spotify", Year: spotifyYear, Weight: weightSpotify})
	}

	if len(usable) == 0 {
		return 0, false
	}
	if len(usable) == 1 {
		return usable[0].Year, true
	}

	mean := weightedMean(usable)
	stddev := populationStddev(usable)

	if stddev <= 1 {
		year = minYear(usable)
	} else {
		if len(usable) >= 3 {
			if idx := worstOutlier(usable, mean, stddev); idx >= 0 {
				usable = append(usable[:idx], usable[idx+1:]...)
				mean = weightedMean(usable)
			}
		}
		year = int(math.Round(mean))
	}

	if spotifyYear > 0 && year > spotifyYear {
		year = spotifyYear
	}
	return year, true
}

func weightedMean(cs []YearCandidate) float64 {
	var sum, weights float64
	for _, c := range cs {
		sum += float64(c.Year) * c.Weight
		weights += c.Weight
	}
	return sum / weights
}

func populationStddev(cs []YearCandidate) float64 {
	var mean float64
	for _, c := range cs {
		mean += float64(c.Year)
	}
	mean /= float64(len(cs))

	var variance float64
	for _, c := range cs {
		d := float64(c.Year) - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(cs)))
}

func minYear(cs []YearCandidate) int {
	min := cs[0].Year
	for _, c := range cs[1:] {
		if c.Year < min {
			min = c.Year
		}
	}
	return min
}

// worstOutlier returns the index of the single candidate deviating more than
// 2x stddev from the weighted mean, -1 when none (or several equally) do.
func worstOutlier(cs []YearCandidate, mean, stddev float64) int {
	idx := -1
	var worst float64
	for i, c := range cs {
		d := math.Abs(float64(c.Year) - mean)
		if d > 2*stddev && d > worst {
			worst = d
			idx = i
		}
	}
	return idx
}

// MusicService enriches tracks with release years and artist descriptions
// from Discogs, MusicBrainz, Wikipedia, OpenPerplex and the AI model, and
// persists the results on the tracks table.
type MusicService struct {
	db       *gorm.DB
	client   *http.Client
	spotify  *SpotifyService
	openai   *OpenAIService
	throttle *RapidAPIThrottle

	discogsURL string
	mbURL      string
	wikiURL    string
	perplexURL string
}

// NewMusicService constructs a MusicService. Nil arguments fall back to the
// shared clients.
func NewMusicService(db *gorm.DB, client *http.Client, spotify *SpotifyService, openai *OpenAIService, throttle *RapidAPIThrottle) *MusicService {
	if db == nil {
		db = config.DB
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &MusicService{
		db:         db,
		client:     client,
		spotify:    spotify,
		openai:     openai,
		throttle:   throttle,
		discogsURL: discogsBaseURL,
		mbURL:      musicBrainzBaseURL,
		wikiURL:    wikipediaBaseURL,
		perplexURL: openPerplexBaseURL,
	}
}

// getJSON fetches a URL and returns the raw body for gjson consumption.
func (s *MusicService) getJSON(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// MusicBrainz rejects anonymous clients.
	req.Header.Set("User-Agent", "tunecards-api/1.0 (support@tunecards.example)")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(resp.Body)
}

// discogsYear returns the earliest release year Discogs knows for the track,
// 0 when not found.
func (s *MusicService) discogsYear(ctx context.Context, artist, title string) (int, error) {
	token := os.Getenv("DISCOGS_TOKEN")
	if token == "" {
		return 0, errors.New("discogs not configured (DISCOGS_TOKEN)")
	}

	q := url.Values{
		"artist": {artist},
		"track":  {title},
		"type":   {"release"},
		"token":  {token},
	}
	raw, err := s.getJSON(ctx, s.discogsURL+"/database/search?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}

	earliest := 0
	gjson.GetBytes(raw, "results.#.year").ForEach(func(_, v gjson.Result) bool {
		year, err := strconv.Atoi(v.String())
		if err != nil || year < 1900 {
			return true
		}
		if earliest == 0 || year < earliest {
			earliest = year
		}
		return true
	})
	return earliest, nil
}

// musicBrainzYear returns the earliest first-release-date year MusicBrainz
// has for a matching recording, 0 when not found.
func (s *MusicService) musicBrainzYear(ctx context.Context, artist, title string) (int, error) {
	query := fmt.Sprintf(`recording:%q AND artist:%q`, title, artist)
	q := url.Values{
		"query": {query},
		"fmt":   {"json"},
		"limit": {"10"},
	}
	raw, err := s.getJSON(ctx, s.mbURL+"/recording?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}

	earliest := 0
	gjson.GetBytes(raw, "recordings.#.first-release-date").ForEach(func(_, v gjson.Result) bool {
		date := v.String()
		if len(date) < 4 {
			return true
		}
		year, err := strconv.Atoi(date[:4])
		if err != nil || year < 1900 {
			return true
		}
		if earliest == 0 || year < earliest {
			earliest = year
		}
		return true
	})
	return earliest, nil
}

// perplexYear asks OpenPerplex (via RapidAPI, throttled) for the release
// year, 0 when unknown.
func (s *MusicService) perplexYear(ctx context.Context, artist, title string) (int, error) {
	apiKey := os.Getenv("RAPIDAPI_KEY")
	if apiKey == "" {
		return 0, errors.New("rapidapi not configured (RAPIDAPI_KEY)")
	}
	if s.throttle == nil {
		return 0, errors.New("rapidapi throttle not initialized")
	}

	question := fmt.Sprintf("In which year was the song %q by %q originally released? Answer with the year only.", title, artist)
	endpoint := s.perplexURL + "/search?query=" + url.QueryEscape(question)

	resp, err := s.throttle.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-RapidAPI-Key", apiKey)
		req.Header.Set("X-RapidAPI-Host", "openperplex.p.rapidapi.com")
		return req, nil
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("openperplex error: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	answer := gjson.GetBytes(raw, "llm_response").String()
	for i := 0; i+4 <= len(answer); i++ {
		if year, err := strconv.Atoi(answer[i : i+4]); err == nil && year >= 1900 && year <= time.Now().Year()+1 {
			return year, nil
		}
	}
	return 0, nil
}

// ArtistBio fetches the Wikipedia summary for an artist, "" when the page
// does not exist.
func (s *MusicService) ArtistBio(ctx context.Context, artist string) (string, error) {
	raw, err := s.getJSON(ctx, s.wikiURL+"/page/summary/"+url.PathEscape(artist), nil)
	if err != nil {
		return "", err
	}

	var summary struct {
		Type    string `json:"type"`
		Extract string `json:"extract"`
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		return "", fmt.Errorf("failed to decode wikipedia summary: %w", err)
	}
	if summary.Type == "disambiguation" {
		return "", nil
	}
	return summary.Extract, nil
}

// ResolveTrack looks up (or creates) the track cache row for a Spotify track
// and fills in the estimated release year from all providers plus the
// Wikipedia artist bio. Provider failures are logged and treated as missing
// answers, never as hard errors.
func (s *MusicService) ResolveTrack(ctx context.Context, spotifyID string) (*models.Track, error) {
	var track models.Track
	err := s.db.WithContext(ctx).Where("spotify_id = ?", spotifyID).First(&track).Error
	if err == nil && track.FinalYear != nil {
		return &track, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load track: %w", err)
	}

	spotifyTrack, err := s.spotify.Track(ctx, spotifyID)
	if err != nil {
		return nil, err
	}

	artist := ""
	if len(spotifyTrack.Artists) > 0 {
		artist = spotifyTrack.Artists[0].Name
	}
	title := spotifyTrack.Name
	spotifyYear := spotifyTrack.ReleaseYear()

	track.SpotifyID = spotifyID
	track.Artist = artist
	track.Title = title
	track.SpotifyYear = spotifyYear

	var candidates []YearCandidate
	collect := func(source string, weight float64, year int, err error) *int {
		if err != nil {
			log.Printf("release year lookup (%s) failed for %s - %s: %v", source, artist, title, err)
			return nil
		}
		if year <= 0 {
			return nil
		}
		candidates = append(candidates, YearCandidate{Source: source, Year: year, Weight: weight})
		return &year
	}

	year, err := s.openai.GuessReleaseYear(ctx, artist, title)
	track.AIYear = collect("ai", weightAI, year, err)

	year, err = s.discogsYear(ctx, artist, title)
	track.DiscogsYear = collect("discogs", weightDiscogs, year, err)

	year, err = s.musicBrainzYear(ctx, artist, title)
	track.MBYear = collect("musicbrainz", weightMB, year, err)

	year, err = s.perplexYear(ctx, artist, title)
	track.PerplexYear = collect("openperplex", weightPerplex, year, err)

	if final, ok := EstimateReleaseYear(candidates, spotifyYear); ok {
		track.FinalYear = &final
	}

	if bio, err := s.ArtistBio(ctx, artist); err != nil {
		log.Printf("artist bio lookup failed for %s: %v", artist, err)
	} else if bio != "" {
		track.ArtistBio = &bio
	}

	now := time.Now()
	if track.CreateAt.IsZero() {
		track.CreateAt = now
	}
	track.UpdateAt = now

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "spotify_id"}},
		UpdateAll: true,
	}).Create(&track).Error; err != nil {
		return nil, fmt.Errorf("failed to save track: %w", err)
	}

	return &track, nil
}
