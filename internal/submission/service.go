package submission

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/quizforge/internal/domain"
	"github.com/victornm/quizforge/internal/errors"
	"github.com/victornm/quizforge/internal/event"
	"github.com/victornm/quizforge/internal/quiz"
	"github.com/victornm/quizforge/internal/sanitize"
)

const maxTakerNameLen = 100

type Config struct {
	DB       *pgxpool.Pool
	EventBus *event.Bus
	Quiz     *quiz.Service
}

type Service struct {
	db   *pgxpool.Pool
	eb   *event.Bus
	quiz *quiz.Service
}

func NewService(c Config) *Service {
	return &Service{
		db:   c.DB,
		eb:   c.EventBus,
		quiz: c.Quiz,
	}
}

type SubmitQuizRequest struct {
	QuizID    string
	TakerName string
	Answers   []AnswerSpec
}

// AnswerReview is one answer resolved for display back to the taker,
// including the correct choice/text for their review.
type AnswerReview struct {
	QuestionText       string
	QuestionType       domain.QuestionType
	SelectedChoiceText string
	TextAnswer         string
	IsCorrect          bool
	CorrectChoice      string
	CorrectText        string
}

type SubmitQuizResponse struct {
	Submission domain.Submission
	QuizTitle  string
	Answers    []AnswerReview
}

// SubmitQuiz scores an anonymous submission and persists the full audit
// trail. Every answer, correct or not, produces an answer row; the
// submission's total_questions freezes the quiz's question count at
// this moment.
func (s *Service) SubmitQuiz(ctx context.Context, req SubmitQuizRequest) (*SubmitQuizResponse, error) {
	q, err := s.quiz.PublicQuiz(ctx, quiz.PublicQuizRequest{QuizID: req.QuizID})
	if err != nil {
		return nil, err
	}

	if len(req.Answers) > len(q.Questions) {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("submission has %d answers but the quiz has only %d questions",
				len(req.Answers), len(q.Questions)))
	}

	graded, score, err := grade(q, req.Answers)
	if err != nil {
		return nil, err
	}

	sub := domain.Submission{
		QuizID:         q.QuizID,
		TakerName:      sanitize.TextN(req.TakerName, maxTakerNameLen),
		Score:          score,
		TotalQuestions: len(q.Questions),
	}

	if err := s.insertSubmission(ctx, &sub, graded); err != nil {
		return nil, err
	}

	s.eb.Publish(ctx, domain.EventSubmissionCreated{
		OwnerID:    q.OwnerID,
		QuizTitle:  q.Title,
		Submission: sub,
	})

	return &SubmitQuizResponse{
		Submission: sub,
		QuizTitle:  q.Title,
		Answers:    reviews(q, sub.Answers),
	}, nil
}

func (s *Service) insertSubmission(ctx context.Context, sub *domain.Submission, graded []gradedAnswer) (err error) {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate submission ID: %w", err)
	}
	sub.SubmissionID = id.String()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const (
		insSubmissionStmt = `
INSERT INTO submissions (submission_id, quiz_id, taker_name, score, total_questions)
VALUES ($1, $2, $3, $4, $5)
RETURNING submitted_at;`
		insAnswerStmt = `
INSERT INTO answers (answer_id, submission_id, question_id, choice_id, text_answer, is_correct)
VALUES ($1, $2, $3, $4, $5, $6);`
	)

	err = tx.QueryRow(ctx, insSubmissionStmt,
		sub.SubmissionID, sub.QuizID, sub.TakerName, sub.Score, sub.TotalQuestions).
		Scan(&sub.SubmitTime)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	sub.Answers = make([]domain.Answer, 0, len(graded))
	for _, ga := range graded {
		aid, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate answer ID: %w", err)
		}

		a := domain.Answer{
			AnswerID:     aid.String(),
			SubmissionID: sub.SubmissionID,
			QuestionID:   ga.question.QuestionID,
			ChoiceID:     ga.choiceID,
			TextAnswer:   ga.textAnswer,
			IsCorrect:    ga.isCorrect,
		}

		var choiceID any
		if a.ChoiceID != "" {
			choiceID = a.ChoiceID
		}

		_, err = tx.Exec(ctx, insAnswerStmt,
			a.AnswerID, a.SubmissionID, a.QuestionID, choiceID, a.TextAnswer, a.IsCorrect)
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}

		sub.Answers = append(sub.Answers, a)
	}

	return tx.Commit(ctx)
}

type GetSubmissionRequest struct {
	QuizID       string
	SubmissionID string
	RequesterID  string
}

// GetSubmission returns a stored submission with its answer breakdown.
// Unlike the owner-scoped quiz reads, a non-owner here gets an explicit
// permission error.
func (s *Service) GetSubmission(ctx context.Context, req GetSubmissionRequest) (*SubmitQuizResponse, error) {
	q, err := s.quiz.PublicQuiz(ctx, quiz.PublicQuizRequest{QuizID: req.QuizID})
	if err != nil {
		return nil, err
	}
	if q.OwnerID != req.RequesterID {
		return nil, errors.New(errors.CodePermissionDenied,
			errors.WithMessagef("submission belongs to someone else's quiz"))
	}

	const subStmt = `
SELECT submission_id, quiz_id, COALESCE(taker_name, ''), score, total_questions, submitted_at
FROM submissions
WHERE submission_id = $1 AND quiz_id = $2;`

	var sub domain.Submission
	err = s.db.QueryRow(ctx, subStmt, req.SubmissionID, req.QuizID).
		Scan(&sub.SubmissionID, &sub.QuizID, &sub.TakerName, &sub.Score, &sub.TotalQuestions, &sub.SubmitTime)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("submission not found: %s", req.SubmissionID))
	}
	if err != nil {
		return nil, fmt.Errorf("select submission: %w", err)
	}

	const ansStmt = `
SELECT answer_id, submission_id, question_id, COALESCE(choice_id::text, ''), COALESCE(text_answer, ''), is_correct
FROM answers
WHERE submission_id = $1
ORDER BY answer_id;`

	rows, err := s.db.Query(ctx, ansStmt, req.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("select answers: %w", err)
	}

	sub.Answers, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Answer, error) {
		var a domain.Answer
		if err := r.Scan(&a.AnswerID, &a.SubmissionID, &a.QuestionID, &a.ChoiceID, &a.TextAnswer, &a.IsCorrect); err != nil {
			return domain.Answer{}, err
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}

	return &SubmitQuizResponse{
		Submission: sub,
		QuizTitle:  q.Title,
		Answers:    reviews(q, sub.Answers),
	}, nil
}

// reviews resolves stored answers against the quiz graph for display.
func reviews(q *domain.Quiz, answers []domain.Answer) []AnswerReview {
	out := make([]AnswerReview, 0, len(answers))
	for _, a := range answers {
		question := q.QuestionByID(a.QuestionID)
		if question == nil {
			// Answers cascade-delete with their question, so a miss here
			// can only be a concurrent delete. Skip the row.
			continue
		}

		r := AnswerReview{
			QuestionText: question.Text,
			QuestionType: question.Type,
			TextAnswer:   a.TextAnswer,
			IsCorrect:    a.IsCorrect,
		}

		if question.Type.HasChoices() {
			if c := question.ChoiceByID(a.ChoiceID); c != nil {
				r.SelectedChoiceText = c.Text
			}
			if c := question.CorrectChoice(); c != nil {
				r.CorrectChoice = c.Text
			}
		} else {
			r.CorrectText = question.CorrectTextAnswer
		}

		out = append(out, r)
	}

	return out
}
