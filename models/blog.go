package models

import "time"

// Locales supported by blog and quiz content. English is the authoring
// locale; the rest are filled by translation.
var SupportedLocales = []string{"en", "nl", "de", "fr", "es"}

// Blog represents the blogs table. Content is stored per locale; only the
// English fields are required at creation, the others default to empty
// strings until translated.
type Blog struct {
	BlogID int    `gorm:"primaryKey;column:blog_id" json:"blog_id"`
	Slug   string `gorm:"column:slug;uniqueIndex" json:"slug"`

	TitleEN   string `gorm:"column:title_en" json:"title_en"`
	TitleNL   string `gorm:"column:title_nl;default:''" json:"title_nl"`
	TitleDE   string `gorm:"column:title_de;default:''" json:"title_de"`
	TitleFR   string `gorm:"column:title_fr;default:''" json:"title_fr"`
	TitleES   string `gorm:"column:title_es;default:''" json:"title_es"`
	ContentEN string `gorm:"column:content_en;type:mediumtext" json:"content_en"`
	ContentNL string `gorm:"column:content_nl;type:mediumtext" json:"content_nl"`
	ContentDE string `gorm:"column:content_de;type:mediumtext" json:"content_de"`
	ContentFR string `gorm:"column:content_fr;type:mediumtext" json:"content_fr"`
	ContentES string `gorm:"column:content_es;type:mediumtext" json:"content_es"`

	ImageURL  string     `gorm:"column:image_url" json:"image_url"`
	Generated bool       `gorm:"column:generated;default:false" json:"generated"`
	Status    string     `gorm:"column:status;type:enum('draft','published');default:'draft'" json:"status"`
	CreatedBy int        `gorm:"column:created_by" json:"created_by"`
	CreateAt  time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt  time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Creator User `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}

func (Blog) TableName() string {
	return "blogs"
}

// Title returns the title for the requested locale, falling back to English
// when the translation is missing.
func (b *Blog) Title(locale string) string {
	var title string
	switch locale {
	case "nl":
		title = b.TitleNL
	case "de":
		title = b.TitleDE
	case "fr":
		title = b.TitleFR
	case "es":
		title = b.TitleES
	}
	if title == "" {
		return b.TitleEN
	}
	return title
}

// Content returns the body for the requested locale with English fallback.
func (b *Blog) Content(locale string) string {
	var content string
	switch locale {
	case "nl":
		content = b.ContentNL
	case "de":
		content = b.ContentDE
	case "fr":
		content = b.ContentFR
	case "es":
		content = b.ContentES
	}
	if content == "" {
		return b.ContentEN
	}
	return content
}

// BlogResponse is the localized shape served to the frontend.
type BlogResponse struct {
	BlogID   int       `json:"blog_id"`
	Slug     string    `json:"slug"`
	Locale   string    `json:"locale"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	ImageURL string    `json:"image_url"`
	Status   string    `json:"status"`
	CreateAt time.Time `json:"create_at"`
	UpdateAt time.Time `json:"update_at"`
}

func (b *Blog) ToResponse(locale string) BlogResponse {
	return BlogResponse{
		BlogID:   b.BlogID,
		Slug:     b.Slug,
		Locale:   locale,
		Title:    b.Title(locale),
		Content:  b.Content(locale),
		ImageURL: b.ImageURL,
		Status:   b.Status,
		CreateAt: b.CreateAt,
		UpdateAt: b.UpdateAt,
	}
}
