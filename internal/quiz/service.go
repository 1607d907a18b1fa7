package quiz

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/quizforge/internal/domain"
	"github.com/victornm/quizforge/internal/errors"
	"github.com/victornm/quizforge/internal/sanitize"
)

type Config struct {
	DB *pgxpool.Pool
}

type Service struct {
	db *pgxpool.Pool
}

func NewService(c Config) *Service {
	return &Service{
		db: c.DB,
	}
}

type CreateQuizRequest struct {
	OwnerID     string
	Title       string
	Description string
}

// CreateQuiz creates a bare quiz without questions.
func (s *Service) CreateQuiz(ctx context.Context, req CreateQuizRequest) (*domain.Quiz, error) {
	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate quiz ID: %w", err)
	}

	q := &domain.Quiz{
		QuizID:      id.String(),
		OwnerID:     req.OwnerID,
		Title:       sanitize.Text(req.Title),
		Description: sanitize.Text(req.Description),
	}

	const stmt = `
INSERT INTO quizzes (quiz_id, owner_id, title, description)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at;`

	err = s.db.QueryRow(ctx, stmt, q.QuizID, q.OwnerID, q.Title, q.Description).
		Scan(&q.CreateTime, &q.UpdateTime)
	if err != nil {
		return nil, fmt.Errorf("insert quiz: %w", err)
	}

	return q, nil
}

type CreateQuizWithQuestionsRequest struct {
	OwnerID     string
	Title       string
	Description string
	Questions   []QuestionSpec
}

type CreateQuizWithQuestionsResponse struct {
	QuizID    string
	Title     string
	ShareLink string
}

// CreateQuizWithQuestions persists a quiz together with its questions
// and choices as a single transaction, so a failure mid-graph leaves no
// partial rows behind.
func (s *Service) CreateQuizWithQuestions(ctx context.Context, req CreateQuizWithQuestionsRequest) (*CreateQuizWithQuestionsResponse, error) {
	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	q := &domain.Quiz{
		OwnerID:     req.OwnerID,
		Title:       sanitize.Text(req.Title),
		Description: sanitize.Text(req.Description),
		Questions:   questions,
	}

	if err := s.insertQuizGraph(ctx, q); err != nil {
		return nil, err
	}

	return &CreateQuizWithQuestionsResponse{
		QuizID:    q.QuizID,
		Title:     q.Title,
		ShareLink: fmt.Sprintf("/quiz/%s", q.QuizID),
	}, nil
}

func (s *Service) insertQuizGraph(ctx context.Context, q *domain.Quiz) (err error) {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate quiz ID: %w", err)
	}
	q.QuizID = id.String()

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
		insQuizStmt = `
INSERT INTO quizzes (quiz_id, owner_id, title, description) VALUES ($1, $2, $3, $4);`
		insQuestionStmt = `
INSERT INTO questions (question_id, quiz_id, question_text, question_type, position, correct_text_answer)
VALUES ($1, $2, $3, $4, $5, $6);`
		insChoiceStmt = `
INSERT INTO choices (choice_id, question_id, choice_text, is_correct) VALUES ($1, $2, $3, $4);`
	)

	_, err = tx.Exec(ctx, insQuizStmt, q.QuizID, q.OwnerID, q.Title, q.Description)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}

	for i := range q.Questions { // TODO: batch insert
		question := &q.Questions[i]

		qid, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate question ID: %w", err)
		}
		question.QuestionID = qid.String()
		question.QuizID = q.QuizID

		_, err = tx.Exec(ctx, insQuestionStmt,
			question.QuestionID, q.QuizID, question.Text, question.Type, question.Position, question.CorrectTextAnswer)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}

		for j := range question.Choices {
			choice := &question.Choices[j]

			cid, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generate choice ID: %w", err)
			}
			choice.ChoiceID = cid.String()
			choice.QuestionID = question.QuestionID

			_, err = tx.Exec(ctx, insChoiceStmt,
				choice.ChoiceID, question.QuestionID, choice.Text, choice.IsCorrect)
			if err != nil {
				return fmt.Errorf("insert choice: %w", err)
			}
		}
	}

	return tx.Commit(ctx)
}

type ListQuizzesRequest struct {
	OwnerID string
}

// Summary is the list-view projection of a quiz.
type Summary struct {
	QuizID        string
	Title         string
	Description   string
	QuestionCount int
	CreateTime    time.Time
}

// ListQuizzes returns the requester's quizzes, newest first.
func (s *Service) ListQuizzes(ctx context.Context, req ListQuizzesRequest) ([]Summary, error) {
	const stmt = `
SELECT q.quiz_id, q.title, q.description, q.created_at, COUNT(qn.question_id) AS question_count
FROM quizzes q
LEFT JOIN questions qn ON qn.quiz_id = q.quiz_id
WHERE q.owner_id = $1
GROUP BY q.quiz_id, q.title, q.description, q.created_at
ORDER BY q.created_at DESC;`

	rows, err := s.db.Query(ctx, stmt, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	summaries, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (Summary, error) {
		var sm Summary
		if err := r.Scan(&sm.QuizID, &sm.Title, &sm.Description, &sm.CreateTime, &sm.QuestionCount); err != nil {
			return Summary{}, err
		}
		return sm, nil
	})
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

type GetQuizRequest struct {
	QuizID  string
	OwnerID string
}

// GetQuiz loads the full quiz graph, scoped to the owner: someone
// else's quiz is indistinguishable from a missing one.
func (s *Service) GetQuiz(ctx context.Context, req GetQuizRequest) (*domain.Quiz, error) {
	q, err := s.loadQuiz(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}
	if q.OwnerID != req.OwnerID {
		return nil, notFound(req.QuizID)
	}

	return q, nil
}

type PublicQuizRequest struct {
	QuizID string
}

// PublicQuiz loads the full quiz graph without an owner filter. The
// result still contains correctness data; transport layers serving
// anonymous takers must strip it.
func (s *Service) PublicQuiz(ctx context.Context, req PublicQuizRequest) (*domain.Quiz, error) {
	return s.loadQuiz(ctx, req.QuizID)
}

func (s *Service) loadQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	const quizStmt = `
SELECT quiz_id, owner_id, title, description, created_at, updated_at
FROM quizzes WHERE quiz_id = $1;`

	var q domain.Quiz
	err := s.db.QueryRow(ctx, quizStmt, quizID).
		Scan(&q.QuizID, &q.OwnerID, &q.Title, &q.Description, &q.CreateTime, &q.UpdateTime)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(quizID)
	}
	if err != nil {
		return nil, fmt.Errorf("select quiz: %w", err)
	}

	const questionStmt = `
SELECT question_id, quiz_id, question_text, question_type, position, COALESCE(correct_text_answer, ''), created_at
FROM questions WHERE quiz_id = $1
ORDER BY position, created_at;`

	rows, err := s.db.Query(ctx, questionStmt, quizID)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}

	q.Questions, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Question, error) {
		var qn domain.Question
		if err := r.Scan(&qn.QuestionID, &qn.QuizID, &qn.Text, &qn.Type, &qn.Position, &qn.CorrectTextAnswer, &qn.CreateTime); err != nil {
			return domain.Question{}, err
		}
		return qn, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.attachChoices(ctx, &q); err != nil {
		return nil, err
	}

	return &q, nil
}

func (s *Service) attachChoices(ctx context.Context, q *domain.Quiz) error {
	const stmt = `
SELECT choice_id, question_id, choice_text, is_correct
FROM choices
WHERE question_id IN (SELECT question_id FROM questions WHERE quiz_id = $1)
ORDER BY choice_id;`

	rows, err := s.db.Query(ctx, stmt, q.QuizID)
	if err != nil {
		return fmt.Errorf("select choices: %w", err)
	}

	choices, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Choice, error) {
		var c domain.Choice
		if err := r.Scan(&c.ChoiceID, &c.QuestionID, &c.Text, &c.IsCorrect); err != nil {
			return domain.Choice{}, err
		}
		return c, nil
	})
	if err != nil {
		return err
	}

	byQuestion := make(map[string][]domain.Choice, len(q.Questions))
	for _, c := range choices {
		byQuestion[c.QuestionID] = append(byQuestion[c.QuestionID], c)
	}
	for i := range q.Questions {
		q.Questions[i].Choices = byQuestion[q.Questions[i].QuestionID]
	}

	return nil
}

type DeleteQuizRequest struct {
	QuizID  string
	OwnerID string
}

// DeleteQuiz removes an owned quiz; questions, choices, submissions and
// answers go with it via the schema's cascades.
func (s *Service) DeleteQuiz(ctx context.Context, req DeleteQuizRequest) error {
	const stmt = `DELETE FROM quizzes WHERE quiz_id = $1 AND owner_id = $2;`

	tag, err := s.db.Exec(ctx, stmt, req.QuizID, req.OwnerID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(req.QuizID)
	}

	return nil
}

func notFound(quizID string) error {
	return errors.New(errors.CodeNotFound, errors.WithMessagef("quiz not found: %s", quizID))
}
