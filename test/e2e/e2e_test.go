//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/joho/godotenv"
)

// These tests run against a live gateway (and its upstream) selected via env:
//
//	BASE_URL   gateway root, default http://localhost:8080
//	E2E_TOKEN  a valid upstream bearer token (required for API tests)
//	LESSON_ID  a lesson known to exist upstream (required for attempt tests)
const defaultBaseURL = "http://localhost:8080"

var (
	baseURL  string
	token    string
	lessonID string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	token = os.Getenv("E2E_TOKEN")
	lessonID = os.Getenv("LESSON_ID")

	os.Exit(m.Run())
}

type apiResponse struct {
	Data  map[string]json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, method, path string, body interface{}) (int, *apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	var parsed apiResponse
	raw, _ := io.ReadAll(res.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
		}
	}
	return res.StatusCode, &parsed
}

func requireToken(t *testing.T) {
	t.Helper()
	if token == "" {
		t.Skip("E2E_TOKEN not set")
	}
}

func TestHealth(t *testing.T) {
	status, _ := call(t, http.MethodGet, "/health", nil)
	if status != http.StatusOK {
		t.Fatalf("health returned %d", status)
	}
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	saved := token
	token = ""
	defer func() { token = saved }()

	status, res := call(t, http.MethodGet, "/api/v1/topics", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if res.Error == nil || res.Error.Code != "TOKEN_REQUIRED" {
		t.Fatalf("expected TOKEN_REQUIRED error, got %+v", res.Error)
	}
}

func TestAttemptLifecycle(t *testing.T) {
	requireToken(t)
	if lessonID == "" {
		t.Skip("LESSON_ID not set")
	}

	// Start.
	status, res := call(t, http.MethodPost, "/api/v1/attempts", map[string]string{"lesson_id": lessonID})
	if status != http.StatusCreated {
		t.Fatalf("start attempt returned %d: %+v", status, res.Error)
	}

	var attempt struct {
		Questions []struct {
			ID string `json:"id"`
		} `json:"questions"`
		RemainingSecs int `json:"remaining_seconds"`
	}
	if err := json.Unmarshal(res.Data["attempt"], &attempt); err != nil {
		t.Fatalf("decode attempt: %v", err)
	}
	if len(attempt.Questions) == 0 {
		t.Fatal("attempt carries no questions")
	}
	if attempt.RemainingSecs <= 0 {
		t.Fatal("attempt started with no time remaining")
	}

	// Re-posting the same lesson must not reset the attempt.
	status, _ = call(t, http.MethodPost, "/api/v1/attempts", map[string]string{"lesson_id": lessonID})
	if status != http.StatusCreated {
		t.Fatalf("idempotent re-start returned %d", status)
	}

	// Answer the first question with an empty (clearing) value — always valid.
	status, res = call(t, http.MethodPost, "/api/v1/attempts/answers", map[string]string{
		"question_id": attempt.Questions[0].ID,
		"answer":      "",
	})
	if status != http.StatusOK {
		t.Fatalf("record answer returned %d: %+v", status, res.Error)
	}

	// Submit.
	status, res = call(t, http.MethodPost, "/api/v1/attempts/submit", nil)
	if status != http.StatusOK {
		t.Fatalf("submit returned %d: %+v", status, res.Error)
	}
	if _, ok := res.Data["result"]; !ok {
		t.Fatal("submit response missing result")
	}

	// A second submit must be rejected.
	status, res = call(t, http.MethodPost, "/api/v1/attempts/submit", nil)
	if status == http.StatusOK {
		t.Fatal("double submit was accepted")
	}
}

func TestFlashcardCRUD(t *testing.T) {
	requireToken(t)

	status, res := call(t, http.MethodPost, "/api/v1/flashcards", map[string]interface{}{
		"front": "e2e front",
		"back":  "e2e back",
	})
	if status != http.StatusCreated {
		t.Fatalf("create flashcard returned %d: %+v", status, res.Error)
	}

	var card struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(res.Data["flashcard"], &card); err != nil {
		t.Fatalf("decode flashcard: %v", err)
	}

	status, res = call(t, http.MethodPut, fmt.Sprintf("/api/v1/flashcards/%s", card.ID), map[string]interface{}{
		"front": "e2e front v2",
		"back":  "e2e back v2",
	})
	if status != http.StatusOK {
		t.Fatalf("update flashcard returned %d: %+v", status, res.Error)
	}

	status, _ = call(t, http.MethodDelete, fmt.Sprintf("/api/v1/flashcards/%s", card.ID), nil)
	if status != http.StatusOK {
		t.Fatalf("delete flashcard returned %d", status)
	}
}
