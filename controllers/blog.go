// controllers/blog.go
package controllers

import (
	"net/http"
	"time"

	"tunecards-api/config"
	"tunecards-api/models"
	"tunecards-api/services"
	"tunecards-api/utils"

	"github.com/gin-gonic/gin"
)

// ===== BLOG CONTROLLERS =====

// requestLocale picks the content locale from the query, defaulting to en.
func requestLocale(c *gin.Context) string {
	locale := c.DefaultQuery("locale", "en")
	for _, l := range models.SupportedLocales {
		if l == locale {
			return locale
		}
	}
	return "en"
}

// requestIsAdmin reports whether the request carries an admin auth context.
func requestIsAdmin(c *gin.Context) bool {
	roleID, exists := c.Get("roleID")
	if !exists {
		return false
	}
	id, ok := roleID.(int)
	return ok && id == models.RoleAdmin
}

// GetBlogs returns published blogs, localized. Admins may request drafts too
// with ?all=true; anonymous callers always get the published filter.
func GetBlogs(c *gin.Context) {
	locale := requestLocale(c)

	query := config.DB.Model(&models.Blog{}).Where("delete_at IS NULL")
	if c.Query("all") == "true" && requestIsAdmin(c) {
		query = query.Order("update_at DESC")
	} else {
		query = query.Where("status = ?", "published").Order("create_at DESC")
	}

	var blogs []models.Blog
	if err := query.Find(&blogs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch blogs"})
		return
	}

	responses := make([]models.BlogResponse, 0, len(blogs))
	for _, blog := range blogs {
		responses = append(responses, blog.ToResponse(locale))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    responses,
		"count":   len(responses),
	})
}

// GetBlog returns one blog by slug, localized.
func GetBlog(c *gin.Context) {
	slug := c.Param("slug")
	locale := requestLocale(c)

	var blog models.Blog
	if err := config.DB.Where("slug = ? AND delete_at IS NULL", slug).First(&blog).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Blog not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": blog.ToResponse(locale)})
}

type BlogCreateRequest struct {
	Slug      string `json:"slug" binding:"required"`
	TitleEN   string `json:"title_en" binding:"required"`
	ContentEN string `json:"content_en" binding:"required"`
	ImageURL  string `json:"image_url"`
	Status    string `json:"status"`
}

// CreateBlog creates a blog post. Only the English fields are required; the
// other locale columns stay empty strings until translated.
func CreateBlog(c *gin.Context) {
	userID, _ := c.Get("userID")

	var req BlogCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := req.Status
	if status != "published" {
		status = "draft"
	}

	now := time.Now()
	blog := models.Blog{
		Slug:      utils.Slugify(req.Slug),
		TitleEN:   req.TitleEN,
		ContentEN: req.ContentEN,
		ImageURL:  req.ImageURL,
		Status:    status,
		CreatedBy: userID.(int),
		CreateAt:  now,
		UpdateAt:  now,
	}

	if err := config.DB.Create(&blog).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create blog"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": blog})
}

// UpdateBlog updates blog fields by id.
func UpdateBlog(c *gin.Context) {
	id := c.Param("id")

	var blog models.Blog
	if err := config.DB.Where("blog_id = ? AND delete_at IS NULL", id).First(&blog).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Blog not found"})
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Whitelist updatable columns.
	allowed := map[string]bool{
		"title_en": true, "title_nl": true, "title_de": true, "title_fr": true, "title_es": true,
		"content_en": true, "content_nl": true, "content_de": true, "content_fr": true, "content_es": true,
		"image_url": true, "status": true, "slug": true,
	}
	filtered := map[string]interface{}{"update_at": time.Now()}
	for k, v := range updates {
		if allowed[k] {
			filtered[k] = v
		}
	}

	if err := config.DB.Model(&blog).Updates(filtered).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update blog"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": blog})
}

// DeleteBlog soft deletes a blog.
func DeleteBlog(c *gin.Context) {
	id := c.Param("id")

	now := time.Now()
	result := config.DB.Model(&models.Blog{}).
		Where("blog_id = ? AND delete_at IS NULL", id).
		Update("delete_at", now)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete blog"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Blog not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Blog deleted"})
}

type BlogGenerateRequest struct {
	Topic string `json:"topic" binding:"required"`
	Slug  string `json:"slug" binding:"required"`
}

// GenerateBlog creates a draft blog from an AI-written post about the topic.
func GenerateBlog(c *gin.Context) {
	userID, _ := c.Get("userID")

	var req BlogGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title, content, err := services.OpenAI().GenerateBlog(c.Request.Context(), req.Topic)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Blog generation failed: " + err.Error()})
		return
	}

	now := time.Now()
	blog := models.Blog{
		Slug:      utils.Slugify(req.Slug),
		TitleEN:   title,
		ContentEN: content,
		Generated: true,
		Status:    "draft",
		CreatedBy: userID.(int),
		CreateAt:  now,
		UpdateAt:  now,
	}

	if err := config.DB.Create(&blog).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store generated blog"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": blog})
}

// TranslateBlog fills the non-English locale columns from the English
// content. Already-translated locales are overwritten.
func TranslateBlog(c *gin.Context) {
	id := c.Param("id")

	var blog models.Blog
	if err := config.DB.Where("blog_id = ? AND delete_at IS NULL", id).First(&blog).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Blog not found"})
		return
	}

	openai := services.OpenAI()
	updates := map[string]interface{}{"update_at": time.Now()}
	for _, locale := range models.SupportedLocales {
		if locale == "en" {
			continue
		}

		title, err := openai.Translate(c.Request.Context(), blog.TitleEN, locale)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Translation failed for " + locale + ": " + err.Error()})
			return
		}
		content, err := openai.Translate(c.Request.Context(), blog.ContentEN, locale)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Translation failed for " + locale + ": " + err.Error()})
			return
		}

		updates["title_"+locale] = title
		updates["content_"+locale] = content
	}

	if err := config.DB.Model(&blog).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store translations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": blog})
}
