package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tunecards-api/config"
	"tunecards-api/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	settingsCacheKey = "settings:cache"
	settingsLockKey  = "settings:lock"
	settingsCacheTTL = 10 * time.Minute
	settingsLockTTL  = 10 * time.Second
)

// SettingsService serves app_settings rows through a Redis cache. Cache
// repopulation is guarded by a SET NX EX lock so concurrent misses do not
// stampede the database; losers of the lock race read the database directly
// instead of waiting.
type SettingsService struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewSettingsService constructs a SettingsService over the shared handles.
func NewSettingsService(db *gorm.DB, rdb *redis.Client) *SettingsService {
	if db == nil {
		db = config.DB
	}
	if rdb == nil {
		rdb = config.Redis
	}
	return &SettingsService{db: db, redis: rdb}
}

// loadFromDB reads all settings into a map.
func (s *SettingsService) loadFromDB(ctx context.Context) (map[string]string, error) {
	var rows []models.AppSetting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load app settings: %w", err)
	}

	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.SettingKey] = row.Value
	}
	return settings, nil
}

// repopulate refreshes the cache under the distributed lock. Returns the
// fresh map regardless of whether the lock (and therefore the cache write)
// was won.
func (s *SettingsService) repopulate(ctx context.Context) (map[string]string, error) {
	lockToken := uuid.NewString()
	locked, err := s.redis.SetNX(ctx, settingsLockKey, lockToken, settingsLockTTL).Result()
	if err != nil {
		// Redis trouble: fall through to the database.
		log.Printf("settings lock acquisition failed: %v", err)
	}

	settings, err := s.loadFromDB(ctx)
	if err != nil {
		return nil, err
	}

	if locked {
		payload, err := json.Marshal(settings)
		if err == nil {
			if err := s.redis.Set(ctx, settingsCacheKey, payload, settingsCacheTTL).Err(); err != nil {
				log.Printf("failed to write settings cache: %v", err)
			}
		}
		// Release only our own lock.
		current, err := s.redis.Get(ctx, settingsLockKey).Result()
		if err == nil && current == lockToken {
			s.redis.Del(ctx, settingsLockKey)
		}
	}

	return settings, nil
}

// All returns the full settings map, from cache when possible.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	payload, err := s.redis.Get(ctx, settingsCacheKey).Bytes()
	if err == nil {
		var settings map[string]string
		if err := json.Unmarshal(payload, &settings); err == nil {
			return settings, nil
		}
		// Corrupt cache entry; drop it and repopulate.
		s.redis.Del(ctx, settingsCacheKey)
	} else if err != redis.Nil {
		log.Printf("settings cache read failed: %v", err)
	}

	return s.repopulate(ctx)
}

// Get returns one setting value, "" when absent.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	settings, err := s.All(ctx)
	if err != nil {
		return "", err
	}
	return settings[key], nil
}

// GetDefault returns the setting value, or def when absent or empty.
func (s *SettingsService) GetDefault(ctx context.Context, key, def string) string {
	value, err := s.Get(ctx, key)
	if err != nil || value == "" {
		return def
	}
	return value
}

// Set upserts a setting and invalidates the cache.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	now := time.Now()
	setting := models.AppSetting{
		SettingKey: key,
		Value:      value,
		CreateAt:   now,
		UpdateAt:   now,
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "update_at"}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}

	if err := s.redis.Del(ctx, settingsCacheKey).Err(); err != nil {
		log.Printf("failed to invalidate settings cache: %v", err)
	}
	return nil
}
