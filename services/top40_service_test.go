package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestWeekUpsertsValidEntries(t *testing.T) {
	t.Setenv("RAPIDAPI_KEY", "test-key")
	_, rdb := testRedis(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "2026", r.URL.Query().Get("year"))
		assert.Equal(t, "30", r.URL.Query().Get("week"))
		w.Write([]byte(`{"chart":[
			{"position":1,"artist":"Dua Lipa","title":"Houdini","weeks":4,"last_position":2},
			{"position":2,"artist":"Tate McRae","title":"Greedy","weeks":9},
			{"position":0,"artist":"Invalid","title":"Position"},
			{"position":3,"artist":"","title":"No Artist"}
		]}`))
	}))
	defer server.Close()

	upsertPattern := regexp.MustCompile("INSERT INTO `top40_entries`")
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		{kind: kindExec, pattern: upsertPattern, result: scriptedResult{rowsAffected: 1}},
		{kind: kindExec, pattern: upsertPattern, result: scriptedResult{rowsAffected: 1}},
	})
	defer cleanup()

	throttle := NewRapidAPIThrottle(rdb, server.Client())
	svc := NewTop40Service(db, throttle, nil)
	svc.baseURL = server.URL

	count, err := svc.IngestWeek(context.Background(), 2026, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "malformed entries are skipped")
	require.NoError(t, state.verifyComplete())
}

func TestIngestWeekRejectsUnusablePayload(t *testing.T) {
	t.Setenv("RAPIDAPI_KEY", "test-key")
	_, rdb := testRedis(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"upstream hiccup"}`))
	}))
	defer server.Close()

	db, _, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	throttle := NewRapidAPIThrottle(rdb, server.Client())
	svc := NewTop40Service(db, throttle, nil)
	svc.baseURL = server.URL

	_, err := svc.IngestWeek(context.Background(), 2026, 30)
	require.Error(t, err)
}

func TestIngestWeekRequiresAPIKey(t *testing.T) {
	t.Setenv("RAPIDAPI_KEY", "")
	_, rdb := testRedis(t)

	db, _, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	svc := NewTop40Service(db, NewRapidAPIThrottle(rdb, nil), nil)
	if _, err := svc.IngestWeek(context.Background(), 2026, 30); err == nil {
		t.Fatal("expected error without RAPIDAPI_KEY")
	}
}
