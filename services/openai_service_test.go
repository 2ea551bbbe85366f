package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// chatServer fakes the chat completions endpoint, wrapping content in the
// response envelope the real API uses.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		envelope := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(envelope)
	}))
}

func testOpenAIService(t *testing.T, server *httptest.Server) *OpenAIService {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	svc := NewOpenAIService(server.Client())
	svc.baseURL = server.URL
	return svc
}

func TestGenerateBlog(t *testing.T) {
	server := chatServer(t, `{"title":"Vinyl Revival","content":"# Vinyl Revival\nRecords are back."}`)
	defer server.Close()

	svc := testOpenAIService(t, server)
	title, content, err := svc.GenerateBlog(context.Background(), "the vinyl revival")
	if err != nil {
		t.Fatalf("GenerateBlog failed: %v", err)
	}
	if title != "Vinyl Revival" {
		t.Fatalf("title = %q", title)
	}
	if content == "" {
		t.Fatal("empty content")
	}
}

func TestGenerateBlogRejectsUnusableOutput(t *testing.T) {
	server := chatServer(t, `{"oops": true}`)
	defer server.Close()

	svc := testOpenAIService(t, server)
	if _, _, err := svc.GenerateBlog(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on output without title/content")
	}
}

func TestGenerateQuizQuestionsSkipsMalformedEntries(t *testing.T) {
	server := chatServer(t, `{"questions":[
		{"question":"Who sang Purple Rain?","options":["Prince","Bowie","Sting","Seal"],"correct":0,"artist":"Prince","title":"Purple Rain"},
		{"question":"Too few options","options":["A","B"],"correct":0},
		{"question":"Correct out of range","options":["A","B","C","D"],"correct":7},
		{"question":"","options":["A","B","C","D"],"correct":1}
	]}`)
	defer server.Close()

	svc := testOpenAIService(t, server)
	questions, err := svc.GenerateQuizQuestions(context.Background(), 1980, "pop", 4)
	if err != nil {
		t.Fatalf("GenerateQuizQuestions failed: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("questions = %d, want 1 valid", len(questions))
	}
	q := questions[0]
	if q.Question != "Who sang Purple Rain?" || q.CorrectOption != 0 || q.Options[0] != "Prince" {
		t.Fatalf("unexpected question %+v", q)
	}
}

func TestGenerateQuizQuestionsAllMalformed(t *testing.T) {
	server := chatServer(t, `{"questions":[{"question":"bad","options":["A"],"correct":0}]}`)
	defer server.Close()

	svc := testOpenAIService(t, server)
	if _, err := svc.GenerateQuizQuestions(context.Background(), 0, "", 5); err == nil {
		t.Fatal("expected error when no valid questions survive")
	}
}

func TestGuessReleaseYear(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{`{"year": 1975}`, 1975},
		{`{"year": 0}`, 0},
		{`{"year": 1775}`, 0},
		{fmt.Sprintf(`{"year": %d}`, time.Now().Year()+5), 0},
	}
	for _, tt := range tests {
		server := chatServer(t, tt.content)
		svc := testOpenAIService(t, server)
		year, err := svc.GuessReleaseYear(context.Background(), "Queen", "Bohemian Rhapsody")
		server.Close()
		if err != nil {
			t.Fatalf("GuessReleaseYear(%s) failed: %v", tt.content, err)
		}
		if year != tt.want {
			t.Errorf("GuessReleaseYear(%s) = %d, want %d", tt.content, year, tt.want)
		}
	}
}

func TestChatCompletionRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	svc := NewOpenAIService(http.DefaultClient)
	if _, err := svc.chatCompletion(context.Background(), "sys", "user", false); err == nil {
		t.Fatal("expected error without OPENAI_API_KEY")
	}
}
