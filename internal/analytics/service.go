package analytics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/victornm/quizforge/internal/domain"
	"github.com/victornm/quizforge/internal/errors"
	"github.com/victornm/quizforge/internal/quiz"
)

type Config struct {
	DB   *pgxpool.Pool
	Quiz *quiz.Service
}

type Service struct {
	db   *pgxpool.Pool
	quiz *quiz.Service
}

func NewService(c Config) *Service {
	return &Service{
		db:   c.DB,
		quiz: c.Quiz,
	}
}

type GetQuizAnalyticsRequest struct {
	QuizID      string
	RequesterID string
}

type GetQuizAnalyticsResponse struct {
	QuizID    string
	QuizTitle string
	Report    Report
}

// GetQuizAnalytics aggregates all submissions of the quiz. Only the
// owner may see it; anyone else gets an explicit permission error.
func (s *Service) GetQuizAnalytics(ctx context.Context, req GetQuizAnalyticsRequest) (*GetQuizAnalyticsResponse, error) {
	q, err := s.quiz.PublicQuiz(ctx, quiz.PublicQuizRequest{QuizID: req.QuizID})
	if err != nil {
		return nil, err
	}
	if q.OwnerID != req.RequesterID {
		return nil, errors.New(errors.CodePermissionDenied,
			errors.WithMessagef("analytics are only visible to the quiz owner"))
	}

	subs, err := s.listSubmissions(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}

	return &GetQuizAnalyticsResponse{
		QuizID:    q.QuizID,
		QuizTitle: q.Title,
		Report:    aggregate(q, subs),
	}, nil
}

func (s *Service) listSubmissions(ctx context.Context, quizID string) ([]domain.Submission, error) {
	type answerRow struct {
		submissionID string
		questionID   string
		isCorrect    bool
	}

	var (
		subs    []domain.Submission
		answers []answerRow
	)

	// Submission rows and answer rows come from independent queries,
	// fetch both at once.
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() (err error) {
		const stmt = `
SELECT submission_id, quiz_id, COALESCE(taker_name, ''), score, total_questions, submitted_at
FROM submissions
WHERE quiz_id = $1
ORDER BY submitted_at;`

		rows, err := s.db.Query(ctx, stmt, quizID)
		if err != nil {
			return fmt.Errorf("select submissions: %w", err)
		}

		subs, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Submission, error) {
			var sub domain.Submission
			if err := r.Scan(&sub.SubmissionID, &sub.QuizID, &sub.TakerName, &sub.Score, &sub.TotalQuestions, &sub.SubmitTime); err != nil {
				return domain.Submission{}, err
			}
			return sub, nil
		})
		return err
	})

	eg.Go(func() (err error) {
		const stmt = `
SELECT a.submission_id, a.question_id, a.is_correct
FROM answers a
JOIN submissions s ON s.submission_id = a.submission_id
WHERE s.quiz_id = $1;`

		rows, err := s.db.Query(ctx, stmt, quizID)
		if err != nil {
			return fmt.Errorf("select answers: %w", err)
		}

		answers, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (answerRow, error) {
			var a answerRow
			if err := r.Scan(&a.submissionID, &a.questionID, &a.isCorrect); err != nil {
				return answerRow{}, err
			}
			return a, nil
		})
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	bySubmission := make(map[string]*domain.Submission, len(subs))
	for i := range subs {
		bySubmission[subs[i].SubmissionID] = &subs[i]
	}
	for _, a := range answers {
		if sub, ok := bySubmission[a.submissionID]; ok {
			sub.Answers = append(sub.Answers, domain.Answer{
				SubmissionID: a.submissionID,
				QuestionID:   a.questionID,
				IsCorrect:    a.isCorrect,
			})
		}
	}

	return subs, nil
}
