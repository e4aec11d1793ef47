package trivia

import "context"

// Event types published on the question change feed.
const (
	EventQuestionCreated = "question_created"
	EventQuestionDeleted = "question_deleted"
)

// Event describes a change to the question catalogue.
type Event struct {
	Type       string    `json:"type"`
	QuestionID int       `json:"question_id"`
	Question   *Question `json:"question,omitempty"`
}

// EventPublisher delivers events to feed subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}
