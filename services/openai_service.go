package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	openAIBaseURL      = "https://api.openai.com/v1"
	openAIDefaultModel = "gpt-4o-mini"
)

// GeneratedQuestion is one quiz question as returned by the model.
type GeneratedQuestion struct {
	Question      string
	Options       [4]string
	CorrectOption int
	TrackArtist   string
	TrackTitle    string
}

// OpenAIService wraps the chat completions endpoint for blog generation,
// quiz generation, translation and release-year guessing. Model output is
// parsed with gjson since it is only loosely structured even in JSON mode.
type OpenAIService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewOpenAIService constructs an OpenAIService. A nil client defaults to a
// 60 second timeout client; generation calls are slow.
func NewOpenAIService(client *http.Client) *OpenAIService {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = openAIDefaultModel
	}
	return &OpenAIService{
		client:  client,
		baseURL: openAIBaseURL,
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		model:   model,
	}
}

// chatCompletion sends one system+user exchange and returns the raw message
// content. jsonMode asks the API for a JSON object response.
func (s *OpenAIService) chatCompletion(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	if s.apiKey == "" {
		return "", errors.New("openai not configured (OPENAI_API_KEY)")
	}

	payload := map[string]interface{}{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	if jsonMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read openai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API error: status %d: %s", resp.StatusCode, gjson.GetBytes(raw, "error.message").String())
	}

	content := gjson.GetBytes(raw, "choices.0.message.content").String()
	if content == "" {
		return "", errors.New("openai returned an empty completion")
	}
	return content, nil
}

// GenerateBlog asks the model for a blog post about the given topic and
// returns title and markdown content.
func (s *OpenAIService) GenerateBlog(ctx context.Context, topic string) (title, content string, err error) {
	system := "You are a music journalist writing for a consumer site about music cards and quizzes. " +
		"Respond with a JSON object: {\"title\": string, \"content\": string}. Content is markdown, 500-800 words."

	raw, err := s.chatCompletion(ctx, system, "Write a blog post about: "+topic, true)
	if err != nil {
		return "", "", err
	}

	title = gjson.Get(raw, "title").String()
	content = gjson.Get(raw, "content").String()
	if title == "" || content == "" {
		return "", "", fmt.Errorf("blog generation returned unusable output: %.80s", raw)
	}
	return title, content, nil
}

// Translate translates HTML/markdown content into the target locale,
// preserving markup.
func (s *OpenAIService) Translate(ctx context.Context, text, targetLocale string) (string, error) {
	system := fmt.Sprintf("Translate the user's text into %s. Preserve all markdown and HTML markup. "+
		"Respond with the translation only.", targetLocale)

	out, err := s.chatCompletion(ctx, system, text, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// GenerateQuizQuestions asks the model for count multiple-choice music
// questions, optionally constrained to a decade and genre.
func (s *OpenAIService) GenerateQuizQuestions(ctx context.Context, decade int, genre string, count int) ([]GeneratedQuestion, error) {
	if count <= 0 || count > 50 {
		count = 10
	}

	var constraints []string
	if decade > 0 {
		constraints = append(constraints, fmt.Sprintf("songs from the %ds", decade))
	}
	if genre != "" {
		constraints = append(constraints, genre+" music")
	}
	scope := "popular music"
	if len(constraints) > 0 {
		scope = strings.Join(constraints, ", ")
	}

	system := "You create music trivia. Respond with a JSON object: " +
		"{\"questions\": [{\"question\": string, \"options\": [4 strings], \"correct\": int (0-3), " +
		"\"artist\": string, \"title\": string}]}. Exactly one option is correct."
	user := fmt.Sprintf("Create %d multiple-choice questions about %s.", count, scope)

	raw, err := s.chatCompletion(ctx, system, user, true)
	if err != nil {
		return nil, err
	}

	items := gjson.Get(raw, "questions")
	if !items.IsArray() {
		return nil, fmt.Errorf("quiz generation returned unusable output: %.80s", raw)
	}

	var questions []GeneratedQuestion
	items.ForEach(func(_, item gjson.Result) bool {
		opts := item.Get("options").Array()
		if len(opts) != 4 {
			return true // skip malformed entries
		}
		q := GeneratedQuestion{
			Question:      item.Get("question").String(),
			CorrectOption: int(item.Get("correct").Int()),
			TrackArtist:   item.Get("artist").String(),
			TrackTitle:    item.Get("title").String(),
		}
		for i := 0; i < 4; i++ {
			q.Options[i] = opts[i].String()
		}
		if q.Question == "" || q.CorrectOption < 0 || q.CorrectOption > 3 {
			return true
		}
		questions = append(questions, q)
		return true
	})

	if len(questions) == 0 {
		return nil, errors.New("quiz generation produced no valid questions")
	}
	return questions, nil
}

// GuessReleaseYear asks the model for the original release year of a song.
// Returns 0 when the model does not know.
func (s *OpenAIService) GuessReleaseYear(ctx context.Context, artist, title string) (int, error) {
	system := "You answer with a JSON object: {\"year\": int}. " +
		"Give the original release year of the song, or 0 if unsure. Original release, not a re-release."

	raw, err := s.chatCompletion(ctx, system, fmt.Sprintf("%s - %s", artist, title), true)
	if err != nil {
		return 0, err
	}

	year := int(gjson.Get(raw, "year").Int())
	if year < 1900 || year > time.Now().Year()+1 {
		return 0, nil
	}
	return year, nil
}
