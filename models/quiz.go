package models

import "time"

// Quiz represents the quizzes table
type Quiz struct {
	QuizID      int        `gorm:"primaryKey;column:quiz_id" json:"quiz_id"`
	Title       string     `gorm:"column:title" json:"title"`
	Description *string    `gorm:"column:description" json:"description"`
	Locale      string     `gorm:"column:locale;default:'en'" json:"locale"`
	Decade      *int       `gorm:"column:decade" json:"decade"` // e.g. 1980 for an 80s quiz
	Genre       *string    `gorm:"column:genre" json:"genre"`
	Generated   bool       `gorm:"column:generated;default:false" json:"generated"`
	Status      string     `gorm:"column:status;type:enum('draft','published');default:'draft'" json:"status"`
	CreatedBy   int        `gorm:"column:created_by" json:"created_by"`
	CreateAt    time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt    time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	Creator   User           `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion represents the quiz_questions table. Options are stored as
// four columns rather than JSON so the printing pipeline can address them
// directly.
type QuizQuestion struct {
	QuestionID    int        `gorm:"primaryKey;column:question_id" json:"question_id"`
	QuizID        int        `gorm:"column:quiz_id;index" json:"quiz_id"`
	Question      string     `gorm:"column:question" json:"question"`
	OptionA       string     `gorm:"column:option_a" json:"option_a"`
	OptionB       string     `gorm:"column:option_b" json:"option_b"`
	OptionC       string     `gorm:"column:option_c" json:"option_c"`
	OptionD       string     `gorm:"column:option_d" json:"option_d"`
	CorrectOption int        `gorm:"column:correct_option" json:"correct_option"` // 0..3
	TrackArtist   *string    `gorm:"column:track_artist" json:"track_artist"`
	TrackTitle    *string    `gorm:"column:track_title" json:"track_title"`
	SpotifyID     *string    `gorm:"column:spotify_id" json:"spotify_id"`
	QuestionOrder int        `gorm:"column:question_order" json:"question_order"`
	CreateAt      time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt      time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt      *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// Options returns the four answer options in display order.
func (q *QuizQuestion) Options() [4]string {
	return [4]string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// PublicQuestion is the question shape sent to players: no correct answer.
type PublicQuestion struct {
	QuestionID    int      `json:"question_id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	QuestionOrder int      `json:"question_order"`
}

func (q *QuizQuestion) ToPublic() PublicQuestion {
	opts := q.Options()
	return PublicQuestion{
		QuestionID:    q.QuestionID,
		Question:      q.Question,
		Options:       opts[:],
		QuestionOrder: q.QuestionOrder,
	}
}
