package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConceptQuestionUnmarshalTaggedForm(t *testing.T) {
	raw := `{
		"type": "single_choice",
		"question": "Which keyword declares a constant?",
		"options": [{"key": "a", "text": "let"}, {"key": "b", "text": "const"}],
		"correctAnswer": "b",
		"explanation": "const declares a constant binding."
	}`

	var q ConceptQuestion
	require.NoError(t, json.Unmarshal([]byte(raw), &q))
	require.Equal(t, QuestionSingleChoice, q.Kind)
	require.NotNil(t, q.SingleChoice)
	assert.Nil(t, q.TrueFalse)
	assert.Nil(t, q.FillBlank)
	assert.Equal(t, "b", q.SingleChoice.CorrectAnswer)
	assert.Len(t, q.SingleChoice.Options, 2)
}

func TestConceptQuestionUnmarshalUnknownType(t *testing.T) {
	var q ConceptQuestion
	err := json.Unmarshal([]byte(`{"type": "essay", "question": "?"}`), &q)
	require.Error(t, err)
}

func TestConceptQuestionMarshalRoundTrip(t *testing.T) {
	q := NewTrueFalse(TrueFalseQuestion{
		Statement:     "Slices share backing arrays.",
		CorrectAnswer: true,
		Explanation:   "A slice is a view over an array.",
	})

	data, err := json.Marshal(q)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "true_false", decoded["type"])
	assert.Equal(t, true, decoded["correctAnswer"])

	var back ConceptQuestion
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, QuestionTrueFalse, back.Kind)
	assert.Equal(t, q.TrueFalse.Statement, back.TrueFalse.Statement)
}

func TestCheckSingleChoice(t *testing.T) {
	q := NewSingleChoice(SingleChoiceQuestion{
		Question:      "Pick one",
		Options:       []ChoiceOption{{Key: "a", Text: "no"}, {Key: "b", Text: "yes"}},
		CorrectAnswer: "b",
	})

	assert.True(t, q.Check("b"))
	assert.False(t, q.Check("a"))
	assert.False(t, q.Check(true), "wrong answer type never matches")
}

func TestCheckTrueFalse(t *testing.T) {
	q := NewTrueFalse(TrueFalseQuestion{Statement: "s", CorrectAnswer: false})

	assert.True(t, q.Check(false))
	assert.False(t, q.Check(true))
	assert.False(t, q.Check("false"))
}

func TestCheckFillBlank(t *testing.T) {
	q := NewFillBlank(FillBlankQuestion{
		Question:       "Keyword that starts a goroutine?",
		CorrectAnswers: []string{"go", "go keyword"},
	})

	assert.True(t, q.Check("go"))
	assert.True(t, q.Check("  GO  "), "trimmed and case-insensitive by default")
	assert.True(t, q.Check("Go Keyword"))
	assert.False(t, q.Check("goroutine"))
}

func TestCheckFillBlankCaseSensitive(t *testing.T) {
	q := NewFillBlank(FillBlankQuestion{
		Question:       "Exact spelling required",
		CorrectAnswers: []string{"Printf"},
		CaseSensitive:  true,
	})

	assert.True(t, q.Check("Printf"))
	assert.True(t, q.Check(" Printf "), "whitespace is still trimmed")
	assert.False(t, q.Check("printf"))
}

func TestProgressID(t *testing.T) {
	assert.Equal(t, "u1-go-basics-3", ProgressID("u1", "go-basics", 3))
}
