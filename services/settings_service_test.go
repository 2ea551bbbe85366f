package services

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func settingsRows() ([]string, [][]driver.Value) {
	now := time.Now()
	columns := []string{"setting_id", "setting_key", "value", "description", "create_at", "update_at"}
	rows := [][]driver.Value{
		{int64(1), "card_price_cents", "80", nil, now, now},
		{int64(2), "maintenance_message", "", nil, now, now},
	}
	return columns, rows
}

func TestSettingsAllPopulatesCacheOnMiss(t *testing.T) {
	mr, rdb := testRedis(t)
	columns, rows := settingsRows()

	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `app_settings`"),
			columns: columns,
			rows:    rows,
		},
	})
	defer cleanup()

	svc := NewSettingsService(db, rdb)
	settings, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "80", settings["card_price_cents"])

	require.NoError(t, state.verifyComplete())

	cached, err := mr.Get(settingsCacheKey)
	require.NoError(t, err)
	assert.Contains(t, cached, "card_price_cents")
	assert.False(t, mr.Exists(settingsLockKey), "lock should be released")
}

func TestSettingsAllServesFromCache(t *testing.T) {
	mr, rdb := testRedis(t)
	require.NoError(t, mr.Set(settingsCacheKey, `{"card_price_cents":"95"}`))

	// No scripted steps: a database hit fails the test.
	db, state, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	svc := NewSettingsService(db, rdb)
	settings, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "95", settings["card_price_cents"])
	require.NoError(t, state.verifyComplete())
}

func TestSettingsAllRepopulatesCorruptCache(t *testing.T) {
	mr, rdb := testRedis(t)
	require.NoError(t, mr.Set(settingsCacheKey, "{not-json"))

	columns, rows := settingsRows()
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `app_settings`"),
			columns: columns,
			rows:    rows,
		},
	})
	defer cleanup()

	svc := NewSettingsService(db, rdb)
	settings, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "80", settings["card_price_cents"])
	require.NoError(t, state.verifyComplete())

	cached, err := mr.Get(settingsCacheKey)
	require.NoError(t, err)
	assert.Contains(t, cached, "card_price_cents")
}

func TestSettingsLockLoserSkipsCacheWrite(t *testing.T) {
	mr, rdb := testRedis(t)
	require.NoError(t, mr.Set(settingsLockKey, "another-process"))

	columns, rows := settingsRows()
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `app_settings`"),
			columns: columns,
			rows:    rows,
		},
	})
	defer cleanup()

	svc := NewSettingsService(db, rdb)
	settings, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "80", settings["card_price_cents"])
	require.NoError(t, state.verifyComplete())

	assert.False(t, mr.Exists(settingsCacheKey), "lock loser must not write the cache")
	current, err := mr.Get(settingsLockKey)
	require.NoError(t, err)
	assert.Equal(t, "another-process", current, "foreign lock must survive")
}

func TestSettingsSetInvalidatesCache(t *testing.T) {
	mr, rdb := testRedis(t)
	require.NoError(t, mr.Set(settingsCacheKey, `{"card_price_cents":"80"}`))

	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `app_settings`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	})
	defer cleanup()

	svc := NewSettingsService(db, rdb)
	require.NoError(t, svc.Set(context.Background(), "card_price_cents", "90"))
	require.NoError(t, state.verifyComplete())

	assert.False(t, mr.Exists(settingsCacheKey), "cache must be invalidated after Set")
}
