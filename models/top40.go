package models

import "time"

// Top40Entry represents the top40_entries table: one chart position in one
// week. Rows are upserted by the weekly ingest job.
type Top40Entry struct {
	EntryID      int       `gorm:"primaryKey;column:entry_id" json:"entry_id"`
	Year         int       `gorm:"column:year;uniqueIndex:uniq_chart_pos,priority:1" json:"year"`
	Week         int       `gorm:"column:week;uniqueIndex:uniq_chart_pos,priority:2" json:"week"`
	Position     int       `gorm:"column:position;uniqueIndex:uniq_chart_pos,priority:3" json:"position"`
	LastPosition *int      `gorm:"column:last_position" json:"last_position"`
	WeeksListed  int       `gorm:"column:weeks_listed;default:1" json:"weeks_listed"`
	Artist       string    `gorm:"column:artist" json:"artist"`
	Title        string    `gorm:"column:title" json:"title"`
	SpotifyID    *string   `gorm:"column:spotify_id" json:"spotify_id"`
	CreateAt     time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     time.Time `gorm:"column:update_at" json:"update_at"`
}

func (Top40Entry) TableName() string {
	return "top40_entries"
}
