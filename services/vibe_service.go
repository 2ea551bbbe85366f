package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"tunecards-api/config"
	"tunecards-api/models"

	"gorm.io/gorm"
)

var (
	ErrInvalidTransition = errors.New("invalid list status transition")
	ErrVotingClosed      = errors.New("voting deadline has passed")
)

// VibeService runs company music-list campaigns: employee track submissions,
// voting, the ranked freeze and the Spotify playlist export. List status only
// ever advances one step at a time through the fixed lifecycle; admins may
// reset a list back to an earlier status.
type VibeService struct {
	db      *gorm.DB
	spotify *SpotifyService
}

// NewVibeService constructs a VibeService.
func NewVibeService(db *gorm.DB, spotify *SpotifyService) *VibeService {
	if db == nil {
		db = config.DB
	}
	return &VibeService{db: db, spotify: spotify}
}

// AdvanceList moves a list to the next lifecycle status. Target must be
// exactly one step past the current status; skipping forward is rejected.
func (s *VibeService) AdvanceList(ctx context.Context, listID int, target string) (*models.CompanyList, error) {
	targetPos, ok := models.ListStatusOrder[target]
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}

	var list models.CompanyList
	if err := s.db.WithContext(ctx).
		Where("list_id = ? AND delete_at IS NULL", listID).
		First(&list).Error; err != nil {
		return nil, fmt.Errorf("list not found: %w", err)
	}

	currentPos := models.ListStatusOrder[list.Status]
	if targetPos != currentPos+1 {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, list.Status, target)
	}

	// The box step requires a frozen ranking to print.
	if target == models.ListStatusBox {
		var frozen int64
		if err := s.db.WithContext(ctx).Model(&models.CompanyListTrack{}).
			Where("list_id = ?", listID).
			Count(&frozen).Error; err != nil {
			return nil, fmt.Errorf("failed to check ranking: %w", err)
		}
		if frozen == 0 {
			return nil, errors.New("cannot enter box status before the ranking is frozen")
		}
	}

	if err := s.db.WithContext(ctx).Model(&list).
		Updates(map[string]interface{}{"status": target, "update_at": time.Now()}).Error; err != nil {
		return nil, fmt.Errorf("failed to update list status: %w", err)
	}
	list.Status = target
	return &list, nil
}

// ResetList moves a list back to an earlier status (admin only; enforced at
// the route). The frozen ranking is discarded when moving before box.
func (s *VibeService) ResetList(ctx context.Context, listID int, target string) (*models.CompanyList, error) {
	targetPos, ok := models.ListStatusOrder[target]
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}

	var list models.CompanyList
	if err := s.db.WithContext(ctx).
		Where("list_id = ? AND delete_at IS NULL", listID).
		First(&list).Error; err != nil {
		return nil, fmt.Errorf("list not found: %w", err)
	}

	if targetPos >= models.ListStatusOrder[list.Status] {
		return nil, fmt.Errorf("%w: reset must move backwards (%s -> %s)", ErrInvalidTransition, list.Status, target)
	}

	if targetPos < models.ListStatusOrder[models.ListStatusBox] {
		if err := s.db.WithContext(ctx).
			Where("list_id = ?", listID).
			Delete(&models.CompanyListTrack{}).Error; err != nil {
			return nil, fmt.Errorf("failed to discard ranking: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).Model(&list).
		Updates(map[string]interface{}{"status": target, "update_at": time.Now()}).Error; err != nil {
		return nil, fmt.Errorf("failed to update list status: %w", err)
	}
	list.Status = target
	return &list, nil
}

// SubmitTrack records an employee's track answer during the questions phase.
func (s *VibeService) SubmitTrack(ctx context.Context, sub *models.CompanyListSubmission) error {
	var list models.CompanyList
	if err := s.db.WithContext(ctx).
		Where("list_id = ? AND delete_at IS NULL", sub.ListID).
		First(&list).Error; err != nil {
		return fmt.Errorf("list not found: %w", err)
	}

	if list.Status != models.ListStatusQuestions {
		return fmt.Errorf("list is not accepting submissions (status %s)", list.Status)
	}
	if list.VoteDeadline != nil && time.Now().After(*list.VoteDeadline) {
		return ErrVotingClosed
	}

	sub.CreateAt = time.Now()
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("failed to store submission: %w", err)
	}
	return nil
}

// Vote records one user's vote for a submission. The unique index rejects
// duplicates.
func (s *VibeService) Vote(ctx context.Context, listID, submissionID, userID int) error {
	var list models.CompanyList
	if err := s.db.WithContext(ctx).
		Where("list_id = ? AND delete_at IS NULL", listID).
		First(&list).Error; err != nil {
		return fmt.Errorf("list not found: %w", err)
	}

	if list.Status != models.ListStatusQuestions {
		return fmt.Errorf("list is not accepting votes (status %s)", list.Status)
	}
	if list.VoteDeadline != nil && time.Now().After(*list.VoteDeadline) {
		return ErrVotingClosed
	}

	vote := models.CompanyListVote{
		ListID:       listID,
		SubmissionID: submissionID,
		UserID:       userID,
		CreateAt:     time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&vote).Error; err != nil {
		return fmt.Errorf("failed to store vote: %w", err)
	}
	return nil
}

// RankedSubmission is one tally row before the freeze.
type RankedSubmission struct {
	Submission models.CompanyListSubmission
	Votes      int
}

// Tally counts votes per submission, deduplicates by Spotify ID (merging
// vote counts into the earliest submission of the track) and returns the
// ranking, best first. Ties break on earlier submission.
func (s *VibeService) Tally(ctx context.Context, listID int) ([]RankedSubmission, error) {
	var submissions []models.CompanyListSubmission
	if err := s.db.WithContext(ctx).
		Where("list_id = ? AND delete_at IS NULL", listID).
		Order("create_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	type voteCount struct {
		SubmissionID int
		Count        int
	}
	var counts []voteCount
	if err := s.db.WithContext(ctx).Model(&models.CompanyListVote{}).
		Select("submission_id, COUNT(*) AS count").
		Where("list_id = ?", listID).
		Group("submission_id").
		Find(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}

	votesBySubmission := make(map[int]int, len(counts))
	for _, c := range counts {
		votesBySubmission[c.SubmissionID] = c.Count
	}

	// Deduplicate by track: employees often submit the same song.
	bestByTrack := make(map[string]RankedSubmission)
	for _, sub := range submissions {
		entry := RankedSubmission{Submission: sub, Votes: votesBySubmission[sub.SubmissionID]}
		if existing, ok := bestByTrack[sub.SpotifyID]; ok {
			// Merge votes; the earliest submission stays the face of the track.
			existing.Votes += entry.Votes
			bestByTrack[sub.SpotifyID] = existing
			continue
		}
		bestByTrack[sub.SpotifyID] = entry
	}

	ranking := make([]RankedSubmission, 0, len(bestByTrack))
	for _, entry := range bestByTrack {
		ranking = append(ranking, entry)
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Votes != ranking[j].Votes {
			return ranking[i].Votes > ranking[j].Votes
		}
		return ranking[i].Submission.CreateAt.Before(ranking[j].Submission.CreateAt)
	})
	return ranking, nil
}

// FreezeRanking snapshots the top-N tally into company_list_tracks. Called
// when the company closes voting; the frozen rows feed the card box and the
// playlist export.
func (s *VibeService) FreezeRanking(ctx context.Context, listID, topN int) ([]models.CompanyListTrack, error) {
	if topN <= 0 {
		topN = 40
	}

	ranking, err := s.Tally(ctx, listID)
	if err != nil {
		return nil, err
	}
	if len(ranking) == 0 {
		return nil, errors.New("nothing to freeze: no submissions")
	}
	if len(ranking) > topN {
		ranking = ranking[:topN]
	}

	// Refreeze replaces the previous snapshot.
	if err := s.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Delete(&models.CompanyListTrack{}).Error; err != nil {
		return nil, fmt.Errorf("failed to clear previous ranking: %w", err)
	}

	now := time.Now()
	tracks := make([]models.CompanyListTrack, 0, len(ranking))
	for i, entry := range ranking {
		tracks = append(tracks, models.CompanyListTrack{
			ListID:    listID,
			Position:  i + 1,
			SpotifyID: entry.Submission.SpotifyID,
			Artist:    entry.Submission.Artist,
			Title:     entry.Submission.Title,
			Votes:     entry.Votes,
			CreateAt:  now,
		})
	}

	if err := s.db.WithContext(ctx).Create(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to store ranking: %w", err)
	}
	return tracks, nil
}

// ExportPlaylist creates the company playlist on Spotify from the frozen
// ranking and stores its id on the list.
func (s *VibeService) ExportPlaylist(ctx context.Context, listID int) (*models.CompanyList, error) {
	var list models.CompanyList
	if err := s.db.WithContext(ctx).Preload("Company").
		Where("list_id = ? AND delete_at IS NULL", listID).
		First(&list).Error; err != nil {
		return nil, fmt.Errorf("list not found: %w", err)
	}

	if list.Status != models.ListStatusPlaylist && list.Status != models.ListStatusPersonalize {
		return nil, fmt.Errorf("list is not ready for playlist export (status %s)", list.Status)
	}

	var tracks []models.CompanyListTrack
	if err := s.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("position ASC").
		Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to load ranking: %w", err)
	}
	if len(tracks) == 0 {
		return nil, errors.New("no frozen ranking to export")
	}

	name := fmt.Sprintf("%s - %s", list.Company.Name, list.Name)
	playlist, err := s.spotify.CreatePlaylist(ctx, name, "The music that defines us. Voted by the team.", false)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, t.SpotifyID)
	}
	if err := s.spotify.AddTracksToPlaylist(ctx, playlist.ID, ids); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&list).
		Updates(map[string]interface{}{
			"spotify_playlist_id": playlist.ID,
			"update_at":           time.Now(),
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to store playlist id: %w", err)
	}
	list.SpotifyPlaylistID = &playlist.ID
	return &list, nil
}
