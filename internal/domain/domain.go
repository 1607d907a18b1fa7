package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuestionType discriminates how a question is answered and scored.
type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "mcq"
	QuestionTypeTrueFalse QuestionType = "true_false"
	QuestionTypeText      QuestionType = "text"
)

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMCQ, QuestionTypeTrueFalse, QuestionTypeText:
		return true
	}
	return false
}

// HasChoices reports whether questions of this type carry a choice list.
func (t QuestionType) HasChoices() bool {
	return t == QuestionTypeMCQ || t == QuestionTypeTrueFalse
}

// User is an authenticated quiz owner.
type User struct {
	UserID       string
	Username     string
	PasswordHash string
	CreateTime   time.Time
}

// Quiz is a collection of ordered questions owned by a user.
type Quiz struct {
	QuizID      string
	OwnerID     string
	Title       string
	Description string
	Questions   []Question
	CreateTime  time.Time
	UpdateTime  time.Time
}

// QuestionByID returns the question with the given id, or nil.
func (q *Quiz) QuestionByID(id string) *Question {
	for i := range q.Questions {
		if q.Questions[i].QuestionID == id {
			return &q.Questions[i]
		}
	}
	return nil
}

type Question struct {
	QuestionID string
	QuizID     string
	Text       string
	Type       QuestionType
	Position   int
	// CorrectTextAnswer is the expected answer for text questions.
	CorrectTextAnswer string
	Choices           []Choice
	CreateTime        time.Time
}

// ChoiceByID returns the choice with the given id, or nil.
func (q *Question) ChoiceByID(id string) *Choice {
	for i := range q.Choices {
		if q.Choices[i].ChoiceID == id {
			return &q.Choices[i]
		}
	}
	return nil
}

// CorrectChoice returns the first choice flagged correct, or nil.
func (q *Question) CorrectChoice() *Choice {
	for i := range q.Choices {
		if q.Choices[i].IsCorrect {
			return &q.Choices[i]
		}
	}
	return nil
}

type Choice struct {
	ChoiceID   string
	QuestionID string
	Text       string
	IsCorrect  bool
}

// Submission is one taker's scored attempt at a quiz.
// TotalQuestions is frozen at the quiz's question count at submission
// time and is never recomputed.
type Submission struct {
	SubmissionID   string
	QuizID         string
	TakerName      string
	Score          int
	TotalQuestions int
	SubmitTime     time.Time
	Answers        []Answer
}

// Percentage is score/total*100 rounded to one decimal, 0 when the
// snapshot total is zero.
func (s Submission) Percentage() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}

	return decimal.NewFromInt(int64(s.Score)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.TotalQuestions))).
		Round(1).
		InexactFloat64()
}

// Answer is the audit record for a single question within a submission.
// ChoiceID is empty for text answers and for choice references that did
// not resolve. IsCorrect is derived once at submission time.
type Answer struct {
	AnswerID     string
	SubmissionID string
	QuestionID   string
	ChoiceID     string
	TextAnswer   string
	IsCorrect    bool
}
