package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionType discriminates the concept-question union.
type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionTrueFalse    QuestionType = "true_false"
	QuestionFillBlank    QuestionType = "fill_blank"
)

// ChoiceOption is one selectable option of a single-choice question.
type ChoiceOption struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// SingleChoiceQuestion asks the user to pick one option by key.
type SingleChoiceQuestion struct {
	Question      string         `json:"question"`
	Options       []ChoiceOption `json:"options"`
	CorrectAnswer string         `json:"correctAnswer"`
	Explanation   string         `json:"explanation"`
	Hint          string         `json:"hint,omitempty"`
}

// TrueFalseQuestion asks the user to judge a statement.
type TrueFalseQuestion struct {
	Statement     string `json:"statement"`
	CorrectAnswer bool   `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

// FillBlankQuestion asks for free text matched against accepted answers.
type FillBlankQuestion struct {
	Question       string   `json:"question"`
	CorrectAnswers []string `json:"correctAnswers"`
	CaseSensitive  bool     `json:"caseSensitive,omitempty"`
	Explanation    string   `json:"explanation"`
}

// ConceptQuestion is a tagged union over the three question shapes. Exactly
// one of the variant pointers is non-nil, matching Kind. It marshals to and
// from the flat JSON form `{"type": "...", ...variant fields}`.
type ConceptQuestion struct {
	Kind         QuestionType
	SingleChoice *SingleChoiceQuestion
	TrueFalse    *TrueFalseQuestion
	FillBlank    *FillBlankQuestion
}

// NewSingleChoice wraps a single-choice question in the union.
func NewSingleChoice(q SingleChoiceQuestion) *ConceptQuestion {
	return &ConceptQuestion{Kind: QuestionSingleChoice, SingleChoice: &q}
}

// NewTrueFalse wraps a true/false question in the union.
func NewTrueFalse(q TrueFalseQuestion) *ConceptQuestion {
	return &ConceptQuestion{Kind: QuestionTrueFalse, TrueFalse: &q}
}

// NewFillBlank wraps a fill-in-the-blank question in the union.
func NewFillBlank(q FillBlankQuestion) *ConceptQuestion {
	return &ConceptQuestion{Kind: QuestionFillBlank, FillBlank: &q}
}

// Prompt returns the user-facing question text of the active variant.
func (q *ConceptQuestion) Prompt() string {
	switch q.Kind {
	case QuestionSingleChoice:
		return q.SingleChoice.Question
	case QuestionTrueFalse:
		return q.TrueFalse.Statement
	case QuestionFillBlank:
		return q.FillBlank.Question
	}
	return ""
}

// Explanation returns the explanation shown after answering.
func (q *ConceptQuestion) Explanation() string {
	switch q.Kind {
	case QuestionSingleChoice:
		return q.SingleChoice.Explanation
	case QuestionTrueFalse:
		return q.TrueFalse.Explanation
	case QuestionFillBlank:
		return q.FillBlank.Explanation
	}
	return ""
}

// Check reports whether the supplied answer is correct. Single-choice expects
// the option key as a string, true/false expects a bool, fill-blank expects
// free text which is trimmed and, unless the question is case sensitive,
// matched case-insensitively against any accepted answer.
func (q *ConceptQuestion) Check(answer any) bool {
	switch q.Kind {
	case QuestionSingleChoice:
		key, ok := answer.(string)
		return ok && key == q.SingleChoice.CorrectAnswer
	case QuestionTrueFalse:
		val, ok := answer.(bool)
		return ok && val == q.TrueFalse.CorrectAnswer
	case QuestionFillBlank:
		text, ok := answer.(string)
		if !ok {
			return false
		}
		normalized := strings.TrimSpace(text)
		for _, correct := range q.FillBlank.CorrectAnswers {
			if q.FillBlank.CaseSensitive {
				if correct == normalized {
					return true
				}
			} else if strings.EqualFold(correct, normalized) {
				return true
			}
		}
		return false
	}
	return false
}

type questionHead struct {
	Type QuestionType `json:"type"`
}

// UnmarshalJSON decodes the flat tagged form into the matching variant.
func (q *ConceptQuestion) UnmarshalJSON(data []byte) error {
	var head questionHead
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("failed to read question type: %w", err)
	}
	switch head.Type {
	case QuestionSingleChoice:
		var v SingleChoiceQuestion
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to decode single choice question: %w", err)
		}
		*q = ConceptQuestion{Kind: QuestionSingleChoice, SingleChoice: &v}
	case QuestionTrueFalse:
		var v TrueFalseQuestion
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to decode true/false question: %w", err)
		}
		*q = ConceptQuestion{Kind: QuestionTrueFalse, TrueFalse: &v}
	case QuestionFillBlank:
		var v FillBlankQuestion
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to decode fill blank question: %w", err)
		}
		*q = ConceptQuestion{Kind: QuestionFillBlank, FillBlank: &v}
	default:
		return fmt.Errorf("unknown question type %q", head.Type)
	}
	return nil
}

// MarshalJSON encodes the active variant with its type tag.
func (q ConceptQuestion) MarshalJSON() ([]byte, error) {
	switch q.Kind {
	case QuestionSingleChoice:
		return marshalTagged(q.Kind, q.SingleChoice)
	case QuestionTrueFalse:
		return marshalTagged(q.Kind, q.TrueFalse)
	case QuestionFillBlank:
		return marshalTagged(q.Kind, q.FillBlank)
	}
	return nil, fmt.Errorf("question has no active variant")
}

func marshalTagged(kind QuestionType, variant any) ([]byte, error) {
	body, err := json.Marshal(variant)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	fields["type"] = tag
	return json.Marshal(fields)
}
