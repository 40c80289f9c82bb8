package confluence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnexpectedReplyShape reports an answers payload that is neither a bare
// list nor a {"results": [...]} envelope. Callers treat it as a diagnostic,
// not a reason to abort a run.
var ErrUnexpectedReplyShape = errors.New("unexpected answers payload shape")

// Author identifies a contributor on the source system. Name is the login,
// which on some instances is the user's email address.
type Author struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
}

// RichBody normalizes the two encodings the Questions API uses for content
// bodies: a bare string, or a wrapped {"content": "..."} object. The rest of
// the pipeline only ever sees the string.
type RichBody struct {
	Content string
}

func (b *RichBody) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.Content = s
		return nil
	}

	var wrapped struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("body is neither a string nor a content object: %w", err)
	}
	b.Content = wrapped.Content
	return nil
}

func (b RichBody) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Content)
}

// EpochMillis is a timestamp transported as milliseconds since the Unix epoch.
type EpochMillis int64

// Time converts the timestamp to a time.Time in the local zone.
func (m EpochMillis) Time() time.Time {
	return time.UnixMilli(int64(m))
}

// Comment is a reply attached to a question or an answer. Comments are kept
// in the order the source returned them and are never reordered.
type Comment struct {
	Author        *Author     `json:"author"`
	Body          RichBody    `json:"body"`
	DateCommented EpochMillis `json:"dateCommented"`
}

// Topic is a source-side tag attached to a question.
type Topic struct {
	Name string `json:"name"`
}

// Question is one migratable unit from the source corpus.
type Question struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Body         RichBody    `json:"body"`
	Author       *Author     `json:"author"`
	DateAsked    EpochMillis `json:"dateAsked"`
	AnswersCount int         `json:"answersCount"`
	Topics       []Topic     `json:"topics"`
	Comments     []Comment   `json:"comments"`
}

// Answer is a reply to a question, migrated as a post under the question's
// destination thread.
type Answer struct {
	ID           int64       `json:"id"`
	Body         RichBody    `json:"body"`
	Author       *Author     `json:"author"`
	DateAnswered EpochMillis `json:"dateAnswered"`
	Accepted     bool        `json:"accepted"`
	Comments     []Comment   `json:"comments"`
}

// AnswerPage resolves the two payload shapes the answers endpoint produces:
// a bare JSON array, or an envelope {"results": [...]}. The union is decided
// here, once, at the client boundary; anything else fails with
// ErrUnexpectedReplyShape.
type AnswerPage struct {
	Results []Answer
}

func (p *AnswerPage) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty payload", ErrUnexpectedReplyShape)
	}

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &p.Results); err != nil {
			return fmt.Errorf("decode answers list: %w", err)
		}
		return nil
	}

	var envelope struct {
		Results *[]Answer `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedReplyShape, err)
	}
	if envelope.Results == nil {
		return fmt.Errorf("%w: object without a results field", ErrUnexpectedReplyShape)
	}
	p.Results = *envelope.Results
	return nil
}
