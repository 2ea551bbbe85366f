package models

import "time"

// Company list lifecycle statuses. A list only ever moves one step forward;
// see services.VibeService.AdvanceList.
const (
	ListStatusNew         = "new"
	ListStatusCompany     = "company"
	ListStatusQuestions   = "questions"
	ListStatusBox         = "box"
	ListStatusCard        = "card"
	ListStatusPlaylist    = "playlist"
	ListStatusPersonalize = "personalize"
)

// ListStatusOrder maps each lifecycle status to its position.
var ListStatusOrder = map[string]int{
	ListStatusNew:         0,
	ListStatusCompany:     1,
	ListStatusQuestions:   2,
	ListStatusBox:         3,
	ListStatusCard:        4,
	ListStatusPlaylist:    5,
	ListStatusPersonalize: 6,
}

// Company represents the companies table
type Company struct {
	CompanyID    int        `gorm:"primaryKey;column:company_id" json:"company_id"`
	Name         string     `gorm:"column:name" json:"name"`
	InviteCode   string     `gorm:"column:invite_code;uniqueIndex" json:"invite_code"`
	ContactEmail string     `gorm:"column:contact_email" json:"contact_email"`
	LogoURL      *string    `gorm:"column:logo_url" json:"logo_url"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt     time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (Company) TableName() string {
	return "companies"
}

// CompanyList represents the company_lists table: one vibe campaign.
type CompanyList struct {
	ListID            int        `gorm:"primaryKey;column:list_id" json:"list_id"`
	CompanyID         int        `gorm:"column:company_id;index" json:"company_id"`
	Name              string     `gorm:"column:name" json:"name"`
	Status            string     `gorm:"column:status;type:enum('new','company','questions','box','card','playlist','personalize');default:'new'" json:"status"`
	CardCount         int        `gorm:"column:card_count;default:0" json:"card_count"`
	VoteDeadline      *time.Time `gorm:"column:vote_deadline" json:"vote_deadline"`
	SpotifyPlaylistID *string    `gorm:"column:spotify_playlist_id" json:"spotify_playlist_id"`
	CreateAt          time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt          time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt          *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Company   Company               `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Questions []CompanyListQuestion `gorm:"foreignKey:ListID" json:"questions,omitempty"`
}

func (CompanyList) TableName() string {
	return "company_lists"
}

// CompanyListQuestion represents the company_list_questions table. Employees
// answer each question with a track submission.
type CompanyListQuestion struct {
	QuestionID    int        `gorm:"primaryKey;column:question_id" json:"question_id"`
	ListID        int        `gorm:"column:list_id;index" json:"list_id"`
	Question      string     `gorm:"column:question" json:"question"`
	QuestionOrder int        `gorm:"column:question_order" json:"question_order"`
	CreateAt      time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt      time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt      *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (CompanyListQuestion) TableName() string {
	return "company_list_questions"
}

// CompanyListSubmission represents the company_list_submissions table: one
// employee's track answer to a list question.
type CompanyListSubmission struct {
	SubmissionID int        `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	ListID       int        `gorm:"column:list_id;index" json:"list_id"`
	QuestionID   *int       `gorm:"column:question_id" json:"question_id"`
	UserID       int        `gorm:"column:user_id" json:"user_id"`
	SpotifyID    string     `gorm:"column:spotify_id" json:"spotify_id"`
	Artist       string     `gorm:"column:artist" json:"artist"`
	Title        string     `gorm:"column:title" json:"title"`
	Motivation   *string    `gorm:"column:motivation" json:"motivation"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Submitter User `gorm:"foreignKey:UserID" json:"submitter,omitempty"`
}

func (CompanyListSubmission) TableName() string {
	return "company_list_submissions"
}

// CompanyListVote represents the company_list_votes table. One vote per user
// per submission, enforced by a unique index.
type CompanyListVote struct {
	VoteID       int       `gorm:"primaryKey;column:vote_id" json:"vote_id"`
	ListID       int       `gorm:"column:list_id;index" json:"list_id"`
	SubmissionID int       `gorm:"column:submission_id;uniqueIndex:uniq_vote,priority:1" json:"submission_id"`
	UserID       int       `gorm:"column:user_id;uniqueIndex:uniq_vote,priority:2" json:"user_id"`
	CreateAt     time.Time `gorm:"column:create_at" json:"create_at"`
}

func (CompanyListVote) TableName() string {
	return "company_list_votes"
}

// CompanyListTrack represents the company_list_tracks table: the frozen
// ranked result used for the card box and the Spotify playlist.
type CompanyListTrack struct {
	TrackID   int       `gorm:"primaryKey;column:track_id" json:"track_id"`
	ListID    int       `gorm:"column:list_id;index" json:"list_id"`
	Position  int       `gorm:"column:position" json:"position"`
	SpotifyID string    `gorm:"column:spotify_id" json:"spotify_id"`
	Artist    string    `gorm:"column:artist" json:"artist"`
	Title     string    `gorm:"column:title" json:"title"`
	Votes     int       `gorm:"column:votes" json:"votes"`
	CreateAt  time.Time `gorm:"column:create_at" json:"create_at"`
}

func (CompanyListTrack) TableName() string {
	return "company_list_tracks"
}
