package feed

import (
	"fmt"

	"github.com/gokatarajesh/trivia-api/internal/trivia"
	ws "github.com/gokatarajesh/trivia-api/pkg/http/ws"
)

// toMessage converts a catalogue event into the WebSocket envelope.
func toMessage(evt trivia.Event) (ws.Message, error) {
	switch evt.Type {
	case trivia.EventQuestionCreated:
		payload := ws.QuestionPayload{ID: evt.QuestionID}
		if q := evt.Question; q != nil {
			payload = ws.QuestionPayload{
				ID:         q.ID,
				Question:   q.Question,
				Answer:     q.Answer,
				Category:   q.Category,
				Difficulty: q.Difficulty,
			}
		}
		return ws.NewMessage(ws.TypeQuestionCreated, payload)
	case trivia.EventQuestionDeleted:
		return ws.NewMessage(ws.TypeQuestionDeleted, ws.QuestionDeletedPayload{ID: evt.QuestionID})
	default:
		return ws.Message{}, fmt.Errorf("unknown event type %q", evt.Type)
	}
}
