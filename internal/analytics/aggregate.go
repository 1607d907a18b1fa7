package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/victornm/quizforge/internal/domain"
)

// Pass threshold: a submission passes when score >= 70% of its own
// total_questions snapshot. Integer form avoids float comparison.
func passed(s domain.Submission) bool {
	return 10*s.Score >= 7*s.TotalQuestions
}

// Report is the owner-facing analytics view of one quiz.
type Report struct {
	SubmissionCount   int
	AverageScore      float64
	AveragePercentage float64
	// PassRate is the share of passing submissions, as a percentage.
	PassRate float64
	Highest  *SubmissionSummary
	Lowest   *SubmissionSummary
	// Questions holds per-question accuracy in quiz order. Empty when
	// there are no submissions.
	Questions []QuestionStats
}

type SubmissionSummary struct {
	SubmissionID   string
	TakerName      string
	Score          int
	TotalQuestions int
	Percentage     float64
	SubmitTime     time.Time
}

type QuestionStats struct {
	QuestionID     string
	Text           string
	Type           domain.QuestionType
	TotalAnswers   int
	CorrectAnswers int
	// Accuracy is correct/total answers as a percentage, 0 when the
	// question was never answered.
	Accuracy float64
}

// aggregate computes the full report over all submissions of a quiz.
// The mean percentage averages each submission's own percentage instead
// of dividing summed scores by summed totals, so submissions against an
// older, smaller version of the quiz keep their original weight.
func aggregate(q *domain.Quiz, subs []domain.Submission) Report {
	r := Report{
		SubmissionCount: len(subs),
		Questions:       []QuestionStats{},
	}
	if len(subs) == 0 {
		return r
	}

	var (
		scoreSum = decimal.Zero
		pctSum   = decimal.Zero
		passes   = 0
		highest  = subs[0]
		lowest   = subs[0]
	)

	for _, s := range subs {
		scoreSum = scoreSum.Add(decimal.NewFromInt(int64(s.Score)))
		pctSum = pctSum.Add(decimal.NewFromFloat(s.Percentage()))
		if passed(s) {
			passes++
		}

		if s.Score > highest.Score || (s.Score == highest.Score && s.SubmitTime.Before(highest.SubmitTime)) {
			highest = s
		}
		if s.Score < lowest.Score || (s.Score == lowest.Score && s.SubmitTime.Before(lowest.SubmitTime)) {
			lowest = s
		}
	}

	count := decimal.NewFromInt(int64(len(subs)))
	r.AverageScore = scoreSum.Div(count).Round(1).InexactFloat64()
	r.AveragePercentage = pctSum.Div(count).Round(1).InexactFloat64()
	r.PassRate = decimal.NewFromInt(int64(passes)).
		Mul(decimal.NewFromInt(100)).
		Div(count).
		Round(1).
		InexactFloat64()

	r.Highest = summarize(highest)
	r.Lowest = summarize(lowest)
	r.Questions = questionStats(q, subs)

	return r
}

func summarize(s domain.Submission) *SubmissionSummary {
	return &SubmissionSummary{
		SubmissionID:   s.SubmissionID,
		TakerName:      s.TakerName,
		Score:          s.Score,
		TotalQuestions: s.TotalQuestions,
		Percentage:     s.Percentage(),
		SubmitTime:     s.SubmitTime,
	}
}

func questionStats(q *domain.Quiz, subs []domain.Submission) []QuestionStats {
	type counts struct {
		total   int
		correct int
	}

	byQuestion := make(map[string]*counts, len(q.Questions))
	for _, s := range subs {
		for _, a := range s.Answers {
			c, ok := byQuestion[a.QuestionID]
			if !ok {
				c = &counts{}
				byQuestion[a.QuestionID] = c
			}
			c.total++
			if a.IsCorrect {
				c.correct++
			}
		}
	}

	stats := make([]QuestionStats, 0, len(q.Questions))
	for _, question := range q.Questions {
		qs := QuestionStats{
			QuestionID: question.QuestionID,
			Text:       question.Text,
			Type:       question.Type,
		}

		if c, ok := byQuestion[question.QuestionID]; ok && c.total > 0 {
			qs.TotalAnswers = c.total
			qs.CorrectAnswers = c.correct
			qs.Accuracy = decimal.NewFromInt(int64(c.correct)).
				Mul(decimal.NewFromInt(100)).
				Div(decimal.NewFromInt(int64(c.total))).
				Round(1).
				InexactFloat64()
		}

		stats = append(stats, qs)
	}

	return stats
}
