package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizforge/internal/domain"
	"github.com/victornm/quizforge/internal/errors"
)

func TestBuildQuestions(t *testing.T) {
	type (
		inputs struct {
			specs []QuestionSpec
		}

		outputs struct {
			questions []domain.Question
			err       error
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"true/false without choices gets the canonical pair": {
			arrange: func() inputs {
				return inputs{
					specs: []QuestionSpec{
						{Text: "The sky is blue", Type: domain.QuestionTypeTrueFalse},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				require.Len(t, out.questions, 1)

				choices := out.questions[0].Choices
				require.Len(t, choices, 2)
				assert.Equal(t, "True", choices[0].Text)
				assert.True(t, choices[0].IsCorrect)
				assert.Equal(t, "False", choices[1].Text)
				assert.False(t, choices[1].IsCorrect)
			},
		},

		"true/false with supplied choices keeps them": {
			arrange: func() inputs {
				return inputs{
					specs: []QuestionSpec{
						{
							Text: "Water boils at 100C",
							Type: domain.QuestionTypeTrueFalse,
							Choices: []ChoiceSpec{
								{Text: "Yes", IsCorrect: true},
								{Text: "No"},
							},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				require.Len(t, out.questions[0].Choices, 2)
				assert.Equal(t, "Yes", out.questions[0].Choices[0].Text)
			},
		},

		"choice list is truncated at the cap": {
			arrange: func() inputs {
				specs := make([]ChoiceSpec, MaxChoicesPerQuestion+5)
				for i := range specs {
					specs[i] = ChoiceSpec{Text: "choice"}
				}
				return inputs{
					specs: []QuestionSpec{
						{Text: "Pick one", Type: domain.QuestionTypeMCQ, Choices: specs},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				assert.Len(t, out.questions[0].Choices, MaxChoicesPerQuestion)
			},
		},

		"text questions carry no choices": {
			arrange: func() inputs {
				return inputs{
					specs: []QuestionSpec{
						{
							Text:              "Capital of France?",
							Type:              domain.QuestionTypeText,
							CorrectTextAnswer: "Paris",
							Choices:           []ChoiceSpec{{Text: "ignored"}},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				assert.Empty(t, out.questions[0].Choices)
				assert.Equal(t, "Paris", out.questions[0].CorrectTextAnswer)
			},
		},

		"position defaults to list index": {
			arrange: func() inputs {
				two := 7
				return inputs{
					specs: []QuestionSpec{
						{Text: "first", Type: domain.QuestionTypeText},
						{Text: "second", Type: domain.QuestionTypeText, Position: &two},
						{Text: "third", Type: domain.QuestionTypeText},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				assert.Equal(t, 0, out.questions[0].Position)
				assert.Equal(t, 7, out.questions[1].Position)
				assert.Equal(t, 2, out.questions[2].Position)
			},
		},

		"free text is sanitized": {
			arrange: func() inputs {
				return inputs{
					specs: []QuestionSpec{
						{
							Text: `<script>alert(1)</script>What is <b>2+2</b>?`,
							Type: domain.QuestionTypeMCQ,
							Choices: []ChoiceSpec{
								{Text: "<i>4</i>", IsCorrect: true},
							},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				assert.Equal(t, "What is &lt;b&gt;2+2&lt;/b&gt;?", out.questions[0].Text)
				assert.Equal(t, "&lt;i&gt;4&lt;/i&gt;", out.questions[0].Choices[0].Text)
			},
		},

		"unknown question type is a field violation": {
			arrange: func() inputs {
				return inputs{
					specs: []QuestionSpec{
						{Text: "q", Type: "essay"},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Error(t, out.err)
				e := errors.Convert(out.err)
				assert.Equal(t, errors.CodeInvalidArgument, e.Code)
				assert.Contains(t, e.Fields, "questions[0].question_type")
			},
		},

		"missing question text is a field violation": {
			arrange: func() inputs {
				return inputs{
					specs: []QuestionSpec{
						{Type: domain.QuestionTypeText},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Error(t, out.err)
				assert.Contains(t, errors.Convert(out.err).Fields, "questions[0].question_text")
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			questions, err := buildQuestions(in.specs)
			tt.assert(t, outputs{questions: questions, err: err})
		})
	}
}

func TestBuildQuestions_GuardRail(t *testing.T) {
	atLimit := make([]QuestionSpec, MaxQuestions)
	for i := range atLimit {
		atLimit[i] = QuestionSpec{Text: "q", Type: domain.QuestionTypeText}
	}

	_, err := buildQuestions(atLimit)
	require.NoError(t, err, "exactly %d questions should be accepted", MaxQuestions)

	overLimit := make([]QuestionSpec, 150)
	for i := range overLimit {
		overLimit[i] = QuestionSpec{Text: "q", Type: domain.QuestionTypeText}
	}

	_, err = buildQuestions(overLimit)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidArgument, errors.Convert(err).Code)
}

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, validateTitle("My quiz"))

	err := validateTitle("")
	require.Error(t, err)
	assert.Contains(t, errors.Convert(err).Fields, "title")

	long := make([]rune, maxTitleLen+1)
	for i := range long {
		long[i] = 'x'
	}
	err = validateTitle(string(long))
	require.Error(t, err)
	assert.Contains(t, errors.Convert(err).Fields, "title")
}
