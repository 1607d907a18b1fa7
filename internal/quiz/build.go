package quiz

import (
	"fmt"

	"github.com/victornm/quizforge/internal/domain"
	"github.com/victornm/quizforge/internal/errors"
	"github.com/victornm/quizforge/internal/sanitize"
)

const (
	// MaxQuestions is the hard cap on questions per quiz; requests above
	// it are rejected outright.
	MaxQuestions = 100
	// MaxChoicesPerQuestion bounds choice lists; extra choices are
	// silently dropped rather than rejected.
	MaxChoicesPerQuestion = 10

	maxTitleLen = 200
)

// QuestionSpec is one question in a nested authoring request.
type QuestionSpec struct {
	Text              string
	Type              domain.QuestionType
	Position          *int
	CorrectTextAnswer string
	Choices           []ChoiceSpec
}

type ChoiceSpec struct {
	Text      string
	IsCorrect bool
}

// buildQuestions validates and normalizes the submitted question specs
// into a persistable question graph: guard rails applied, free text
// sanitized, true/false questions without choices expanded to the
// canonical True/False pair, position defaulting to list index.
func buildQuestions(specs []QuestionSpec) ([]domain.Question, error) {
	if len(specs) > MaxQuestions {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("a quiz can have at most %d questions, got %d", MaxQuestions, len(specs)))
	}

	fields := make(map[string]string)
	questions := make([]domain.Question, 0, len(specs))

	for i, spec := range specs {
		if spec.Text == "" {
			fields[fmt.Sprintf("questions[%d].question_text", i)] = "required"
		}
		if !spec.Type.Valid() {
			fields[fmt.Sprintf("questions[%d].question_type", i)] = fmt.Sprintf("must be one of %q, %q, %q",
				domain.QuestionTypeMCQ, domain.QuestionTypeTrueFalse, domain.QuestionTypeText)
			continue
		}

		position := i
		if spec.Position != nil {
			position = *spec.Position
		}

		q := domain.Question{
			Text:              sanitize.Text(spec.Text),
			Type:              spec.Type,
			Position:          position,
			CorrectTextAnswer: sanitize.Text(spec.CorrectTextAnswer),
		}

		q.Choices = buildChoices(spec)
		questions = append(questions, q)
	}

	if len(fields) > 0 {
		return nil, errors.Validation(fields)
	}

	return questions, nil
}

func buildChoices(spec QuestionSpec) []domain.Choice {
	if !spec.Type.HasChoices() {
		return nil
	}

	if spec.Type == domain.QuestionTypeTrueFalse && len(spec.Choices) == 0 {
		return []domain.Choice{
			{Text: "True", IsCorrect: true},
			{Text: "False", IsCorrect: false},
		}
	}

	specs := spec.Choices
	if len(specs) > MaxChoicesPerQuestion {
		specs = specs[:MaxChoicesPerQuestion]
	}

	choices := make([]domain.Choice, 0, len(specs))
	for _, c := range specs {
		choices = append(choices, domain.Choice{
			Text:      sanitize.TextN(c.Text, maxTitleLen),
			IsCorrect: c.IsCorrect,
		})
	}

	return choices
}

func validateTitle(title string) error {
	fields := make(map[string]string)
	if title == "" {
		fields["title"] = "required"
	} else if len([]rune(title)) > maxTitleLen {
		fields["title"] = fmt.Sprintf("must be at most %d characters", maxTitleLen)
	}

	if len(fields) > 0 {
		return errors.Validation(fields)
	}
	return nil
}
