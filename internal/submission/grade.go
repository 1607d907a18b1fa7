package submission

import (
	"strings"

	"github.com/victornm/quizforge/internal/domain"
	"github.com/victornm/quizforge/internal/errors"
	"github.com/victornm/quizforge/internal/sanitize"
)

// AnswerSpec is one answer in a public submission request.
type AnswerSpec struct {
	QuestionID string
	ChoiceID   string
	TextAnswer string
}

type gradedAnswer struct {
	question   *domain.Question
	choiceID   string
	textAnswer string
	isCorrect  bool
}

// grade walks the answers in submission order and resolves each against
// the quiz. Duplicate question ids are silently skipped (first wins).
// A choice id that does not exist or belongs to another question is a
// soft miss: the answer is recorded as incorrect with no choice
// reference. An unknown question id is a hard error.
func grade(q *domain.Quiz, specs []AnswerSpec) ([]gradedAnswer, int, error) {
	graded := make([]gradedAnswer, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	score := 0

	for _, spec := range specs {
		if seen[spec.QuestionID] {
			continue
		}
		seen[spec.QuestionID] = true

		question := q.QuestionByID(spec.QuestionID)
		if question == nil {
			return nil, 0, errors.New(errors.CodeNotFound,
				errors.WithMessagef("question not found: %s", spec.QuestionID))
		}

		ga := gradedAnswer{
			question:   question,
			textAnswer: sanitize.Text(spec.TextAnswer),
		}

		if question.Type.HasChoices() {
			if c := question.ChoiceByID(spec.ChoiceID); c != nil {
				ga.choiceID = c.ChoiceID
				ga.isCorrect = c.IsCorrect
			}
		} else {
			ga.isCorrect = textMatches(question.CorrectTextAnswer, ga.textAnswer)
		}

		if ga.isCorrect {
			score++
		}

		graded = append(graded, ga)
	}

	return graded, score, nil
}

// textMatches compares a free-text answer against the expected answer,
// ignoring case and surrounding whitespace. An empty expected answer
// never matches.
func textMatches(expected, got string) bool {
	expected = strings.TrimSpace(expected)
	if expected == "" {
		return false
	}

	return strings.EqualFold(expected, strings.TrimSpace(got))
}
