//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestFeedReceivesCreatedQuestion(t *testing.T) {
	wsURL := "ws" + strings.TrimPrefix(baseURL(), "http") + "/ws/questions"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial feed: %v", err)
	}
	defer conn.Close()

	q := createQuestion(t, "Integration feed", 5, 1)

	deadline := time.Now().Add(5 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("no question_created event for %d: %v", q.ID, err)
		}
		if msg.Type != "question_created" {
			continue
		}
		var payload struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.ID == q.ID {
			return
		}
	}
}
