package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"tunecards-api/config"
	"tunecards-api/models"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const top40BaseURL = "https://top40-charts.p.rapidapi.com"

// Top40Service ingests the weekly singles chart from the RapidAPI chart
// provider and serves stored weeks. Ingest runs from the weekly cron and can
// be triggered by admins.
type Top40Service struct {
	db       *gorm.DB
	throttle *RapidAPIThrottle
	spotify  *SpotifyService
	baseURL  string
}

// NewTop40Service constructs a Top40Service.
func NewTop40Service(db *gorm.DB, throttle *RapidAPIThrottle, spotify *SpotifyService) *Top40Service {
	if db == nil {
		db = config.DB
	}
	return &Top40Service{
		db:       db,
		throttle: throttle,
		spotify:  spotify,
		baseURL:  top40BaseURL,
	}
}

// Chart returns the stored chart for a year/week ordered by position.
func (s *Top40Service) Chart(ctx context.Context, year, week int) ([]models.Top40Entry, error) {
	var entries []models.Top40Entry
	if err := s.db.WithContext(ctx).
		Where("year = ? AND week = ?", year, week).
		Order("position ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load chart: %w", err)
	}
	return entries, nil
}

// IngestWeek fetches one chart week from the provider and upserts its
// entries. Spotify IDs are resolved best-effort; a failed match leaves the
// column NULL for a later pass.
func (s *Top40Service) IngestWeek(ctx context.Context, year, week int) (int, error) {
	apiKey := os.Getenv("RAPIDAPI_KEY")
	if apiKey == "" {
		return 0, errors.New("rapidapi not configured (RAPIDAPI_KEY)")
	}
	if s.throttle == nil {
		return 0, errors.New("rapidapi throttle not initialized")
	}

	endpoint := fmt.Sprintf("%s/chart?year=%d&week=%d", s.baseURL, year, week)
	resp, err := s.throttle.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-RapidAPI-Key", apiKey)
		req.Header.Set("X-RapidAPI-Host", "top40-charts.p.rapidapi.com")
		return req, nil
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("chart provider error: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	items := gjson.GetBytes(raw, "chart")
	if !items.IsArray() {
		return 0, fmt.Errorf("chart provider returned unusable payload: %.80s", raw)
	}

	now := time.Now()
	count := 0
	var ingestErr error
	items.ForEach(func(_, item gjson.Result) bool {
		position := int(item.Get("position").Int())
		artist := item.Get("artist").String()
		title := item.Get("title").String()
		if position <= 0 || artist == "" || title == "" {
			return true
		}

		entry := models.Top40Entry{
			Year:        year,
			Week:        week,
			Position:    position,
			WeeksListed: int(item.Get("weeks").Int()),
			Artist:      artist,
			Title:       title,
			CreateAt:    now,
			UpdateAt:    now,
		}
		if last := item.Get("last_position"); last.Exists() && last.Int() > 0 {
			lp := int(last.Int())
			entry.LastPosition = &lp
		}
		if entry.WeeksListed == 0 {
			entry.WeeksListed = 1
		}

		if id := s.matchSpotifyID(ctx, artist, title); id != "" {
			entry.SpotifyID = &id
		}

		if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "year"}, {Name: "week"}, {Name: "position"}},
			UpdateAll: true,
		}).Create(&entry).Error; err != nil {
			ingestErr = fmt.Errorf("failed to upsert chart position %d: %w", position, err)
			return false
		}
		count++
		return true
	})
	if ingestErr != nil {
		return count, ingestErr
	}

	return count, nil
}

// IngestCurrentWeek ingests the ISO week containing now; used by the cron.
func (s *Top40Service) IngestCurrentWeek(ctx context.Context) (int, error) {
	year, week := time.Now().ISOWeek()
	return s.IngestWeek(ctx, year, week)
}

// matchSpotifyID searches the catalog for the chart entry, "" when no
// confident match exists.
func (s *Top40Service) matchSpotifyID(ctx context.Context, artist, title string) string {
	if s.spotify == nil {
		return ""
	}
	tracks, err := s.spotify.SearchTracks(ctx, fmt.Sprintf("artist:%s track:%s", artist, title), 1)
	if err != nil {
		log.Printf("spotify match failed for %s - %s: %v", artist, title, err)
		return ""
	}
	if len(tracks) == 0 {
		return ""
	}
	return tracks[0].ID
}
