//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

type question struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   int    `json:"category"`
	Difficulty int    `json:"difficulty"`
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func baseURL() string {
	return envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
}

// doJSON sends payload (if any) and decodes the response body into out (if any).
func doJSON(t *testing.T, method, url string, payload interface{}, out interface{}) int {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

// createQuestion inserts a uniquely worded question and deletes it when the test ends.
func createQuestion(t *testing.T, prefix string, category, difficulty int) question {
	t.Helper()

	q := question{
		Question:   fmt.Sprintf("%s %d?", prefix, time.Now().UnixNano()),
		Answer:     "integration",
		Category:   category,
		Difficulty: difficulty,
	}
	var out struct {
		Success bool `json:"success"`
		Created int  `json:"created"`
	}
	status := doJSON(t, http.MethodPost, baseURL()+"/questions", q, &out)
	if status != http.StatusOK || !out.Success {
		t.Fatalf("create question: status %d", status)
	}
	q.ID = out.Created

	t.Cleanup(func() {
		doJSON(t, http.MethodDelete, fmt.Sprintf("%s/questions/%d", baseURL(), q.ID), nil, nil)
	})
	return q
}
