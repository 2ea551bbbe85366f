package services

import (
	"context"
	"log"
	"sync"

	"tunecards-api/config"
)

// Shared instances for services that hold token or limiter state. Stateless
// services are constructed per request in the controllers.
var (
	spotifyOnce sync.Once
	spotifySvc  *SpotifyService

	openaiOnce sync.Once
	openaiSvc  *OpenAIService

	appleOnce sync.Once
	appleSvc  *AppleMusicService
	appleErr  error

	throttleOnce sync.Once
	throttleSvc  *RapidAPIThrottle

	cloudfrontOnce sync.Once
	cloudfrontSvc  *CloudFrontService
)

// Spotify returns the shared Spotify client.
func Spotify() *SpotifyService {
	spotifyOnce.Do(func() {
		spotifySvc = NewSpotifyService(nil)
	})
	return spotifySvc
}

// OpenAI returns the shared OpenAI client.
func OpenAI() *OpenAIService {
	openaiOnce.Do(func() {
		openaiSvc = NewOpenAIService(nil)
	})
	return openaiSvc
}

// AppleMusic returns the shared Apple Music token service; nil when not
// configured.
func AppleMusic() (*AppleMusicService, error) {
	appleOnce.Do(func() {
		appleSvc, appleErr = NewAppleMusicService()
	})
	return appleSvc, appleErr
}

// Throttle returns the shared RapidAPI throttle.
func Throttle() *RapidAPIThrottle {
	throttleOnce.Do(func() {
		throttleSvc = NewRapidAPIThrottle(config.Redis, nil)
	})
	return throttleSvc
}

// CloudFront returns the shared invalidation service; nil when AWS is not
// configured, in which case invalidation is skipped.
func CloudFront() *CloudFrontService {
	cloudfrontOnce.Do(func() {
		svc, err := NewCloudFrontService(context.Background())
		if err != nil {
			log.Printf("cloudfront invalidation disabled: %v", err)
			return
		}
		cloudfrontSvc = svc
	})
	return cloudfrontSvc
}

// Music returns a MusicService wired to the shared clients.
func Music() *MusicService {
	return NewMusicService(nil, nil, Spotify(), OpenAI(), Throttle())
}
