package models

import "time"

// Track represents the tracks table: a per-track metadata cache keyed by
// Spotify ID. The release year columns record what each provider answered so
// the estimate can be recomputed without refetching.
type Track struct {
	TrackID     int     `gorm:"primaryKey;column:track_id" json:"track_id"`
	SpotifyID   string  `gorm:"column:spotify_id;uniqueIndex" json:"spotify_id"`
	Artist      string  `gorm:"column:artist" json:"artist"`
	Title       string  `gorm:"column:title" json:"title"`
	SpotifyYear int     `gorm:"column:spotify_year" json:"spotify_year"`
	AIYear      *int    `gorm:"column:ai_year" json:"ai_year"`
	DiscogsYear *int    `gorm:"column:discogs_year" json:"discogs_year"`
	MBYear      *int    `gorm:"column:mb_year" json:"mb_year"`
	PerplexYear *int    `gorm:"column:perplex_year" json:"perplex_year"`
	FinalYear   *int    `gorm:"column:final_year" json:"final_year"`
	ArtistBio   *string `gorm:"column:artist_bio;type:text" json:"artist_bio"`

	CreateAt time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt time.Time `gorm:"column:update_at" json:"update_at"`
}

func (Track) TableName() string {
	return "tracks"
}
