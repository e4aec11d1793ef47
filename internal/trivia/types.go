package trivia

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DefaultPageSize is the number of questions per page when none is configured.
const DefaultPageSize = 10

// Question is the client-facing question record.
type Question struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   int    `json:"category"`
	Difficulty int    `json:"difficulty"`
}

// Category is a read-only question category.
type Category struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// Categories marshals as an id -> type object, keys in ascending id order.
type Categories []Category

func (c Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(cat.ID)))
		buf.WriteByte(':')
		typ, err := json.Marshal(cat.Type)
		if err != nil {
			return nil, err
		}
		buf.Write(typ)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FlexInt decodes from a JSON number or a numeric string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("flexint: %q is not an integer", s)
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// Ptr returns f as a plain *int, nil-safe.
func (f *FlexInt) Ptr() *int {
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

// NewQuestion carries the fields of a create request. Every field is optional
// here; the store decides what it accepts.
type NewQuestion struct {
	Question   *string  `json:"question"`
	Answer     *string  `json:"answer"`
	Difficulty *FlexInt `json:"difficulty"`
	Category   *FlexInt `json:"category"`
}

// QuestionPage is one page of the full question listing.
type QuestionPage struct {
	Questions  []Question
	Total      int
	Categories Categories
}

// DeleteResult is returned after a successful delete.
type DeleteResult struct {
	Deleted   int
	Questions []Question
	// Total is the length of Questions, not the number of remaining rows.
	Total int
}

// SearchResult is one page of search matches.
type SearchResult struct {
	Questions []Question
	// Total is the length of Questions, not the number of matches.
	Total int
}

// QuizCategory selects the candidate set; ID 0 means every category.
type QuizCategory struct {
	ID   *FlexInt `json:"id" validate:"required"`
	Type string   `json:"type"`
}

// QuizRequest asks for the next unseen question.
type QuizRequest struct {
	QuizCategory      *QuizCategory `json:"quiz_category" validate:"required"`
	PreviousQuestions []int         `json:"previous_questions" validate:"required"`
}

// AllCategories is the quiz category id that selects every question.
const AllCategories = 0
