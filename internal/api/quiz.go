package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/victornm/quizforge/internal/analytics"
	"github.com/victornm/quizforge/internal/domain"
	"github.com/victornm/quizforge/internal/quiz"
)

type quizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func (a *API) handleListQuizzes(c *gin.Context) {
	summaries, err := a.qs.ListQuizzes(c.Request.Context(), quiz.ListQuizzesRequest{
		OwnerID: userID(c),
	})
	if err != nil {
		abort(c, err)
		return
	}

	resp := make([]quizSummary, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, quizSummary{
			ID:            s.QuizID,
			Title:         s.Title,
			Description:   s.Description,
			QuestionCount: s.QuestionCount,
			CreatedAt:     s.CreateTime,
		})
	}

	c.JSON(http.StatusOK, resp)
}

type createQuizRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (a *API) handleCreateQuiz(c *gin.Context) {
	var req createQuizRequest
	if !bindJSON(c, &req) {
		return
	}

	q, err := a.qs.CreateQuiz(c.Request.Context(), quiz.CreateQuizRequest{
		OwnerID:     userID(c),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          q.QuizID,
		"title":       q.Title,
		"description": q.Description,
		"created_at":  q.CreateTime,
		"updated_at":  q.UpdateTime,
	})
}

type choiceSpec struct {
	ChoiceText string `json:"choice_text"`
	IsCorrect  bool   `json:"is_correct"`
}

type questionSpec struct {
	QuestionText      string       `json:"question_text"`
	QuestionType      string       `json:"question_type"`
	Order             *int         `json:"order"`
	CorrectTextAnswer string       `json:"correct_text_answer"`
	Choices           []choiceSpec `json:"choices"`
}

type createQuizWithQuestionsRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []questionSpec `json:"questions"`
}

func (a *API) handleCreateQuizWithQuestions(c *gin.Context) {
	var req createQuizWithQuestionsRequest
	if !bindJSON(c, &req) {
		return
	}

	specs := make([]quiz.QuestionSpec, 0, len(req.Questions))
	for _, qn := range req.Questions {
		spec := quiz.QuestionSpec{
			Text:              qn.QuestionText,
			Type:              domain.QuestionType(qn.QuestionType),
			Position:          qn.Order,
			CorrectTextAnswer: qn.CorrectTextAnswer,
		}
		for _, ch := range qn.Choices {
			spec.Choices = append(spec.Choices, quiz.ChoiceSpec{
				Text:      ch.ChoiceText,
				IsCorrect: ch.IsCorrect,
			})
		}
		specs = append(specs, spec)
	}

	resp, err := a.qs.CreateQuizWithQuestions(c.Request.Context(), quiz.CreateQuizWithQuestionsRequest{
		OwnerID:     userID(c),
		Title:       req.Title,
		Description: req.Description,
		Questions:   specs,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         resp.QuizID,
		"title":      resp.Title,
		"message":    "Quiz created successfully",
		"share_link": resp.ShareLink,
	})
}

type choiceView struct {
	ID         string `json:"id"`
	ChoiceText string `json:"choice_text"`
	IsCorrect  *bool  `json:"is_correct,omitempty"`
}

type questionView struct {
	ID                string       `json:"id"`
	QuestionText      string       `json:"question_text"`
	QuestionType      string       `json:"question_type"`
	Order             int          `json:"order"`
	CorrectTextAnswer *string      `json:"correct_text_answer,omitempty"`
	Choices           []choiceView `json:"choices"`
}

type quizView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []questionView `json:"questions"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
}

// viewQuiz projects the quiz graph for the owner (withAnswers) or for an
// anonymous taker, who must not see correctness data.
func viewQuiz(q *domain.Quiz, withAnswers bool) quizView {
	v := quizView{
		ID:          q.QuizID,
		Title:       q.Title,
		Description: q.Description,
		Questions:   make([]questionView, 0, len(q.Questions)),
	}
	if withAnswers {
		v.CreatedAt = &q.CreateTime
		v.UpdatedAt = &q.UpdateTime
	}

	for _, qn := range q.Questions {
		qv := questionView{
			ID:           qn.QuestionID,
			QuestionText: qn.Text,
			QuestionType: string(qn.Type),
			Order:        qn.Position,
			Choices:      make([]choiceView, 0, len(qn.Choices)),
		}
		if withAnswers {
			answer := qn.CorrectTextAnswer
			qv.CorrectTextAnswer = &answer
		}

		for _, ch := range qn.Choices {
			cv := choiceView{
				ID:         ch.ChoiceID,
				ChoiceText: ch.Text,
			}
			if withAnswers {
				correct := ch.IsCorrect
				cv.IsCorrect = &correct
			}
			qv.Choices = append(qv.Choices, cv)
		}

		v.Questions = append(v.Questions, qv)
	}

	return v
}

func (a *API) handleGetQuiz(c *gin.Context) {
	q, err := a.qs.GetQuiz(c.Request.Context(), quiz.GetQuizRequest{
		QuizID:  c.Param("id"),
		OwnerID: userID(c),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, viewQuiz(q, true))
}

func (a *API) handleDeleteQuiz(c *gin.Context) {
	err := a.qs.DeleteQuiz(c.Request.Context(), quiz.DeleteQuizRequest{
		QuizID:  c.Param("id"),
		OwnerID: userID(c),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type questionStatsView struct {
	QuestionID     string  `json:"question_id"`
	QuestionText   string  `json:"question_text"`
	QuestionType   string  `json:"question_type"`
	TotalAnswers   int     `json:"total_answers"`
	CorrectAnswers int     `json:"correct_answers"`
	Accuracy       float64 `json:"accuracy"`
}

type submissionSummaryView struct {
	ID             string    `json:"id"`
	TakerName      string    `json:"taker_name"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type analyticsView struct {
	QuizID            string                 `json:"quiz_id"`
	QuizTitle         string                 `json:"quiz_title"`
	SubmissionCount   int                    `json:"submission_count"`
	AverageScore      float64                `json:"average_score"`
	AveragePercentage float64                `json:"average_percentage"`
	PassRate          float64                `json:"pass_rate"`
	Highest           *submissionSummaryView `json:"highest_submission"`
	Lowest            *submissionSummaryView `json:"lowest_submission"`
	Questions         []questionStatsView    `json:"questions"`
}

func (a *API) handleQuizAnalytics(c *gin.Context) {
	resp, err := a.as.GetQuizAnalytics(c.Request.Context(), analytics.GetQuizAnalyticsRequest{
		QuizID:      c.Param("id"),
		RequesterID: userID(c),
	})
	if err != nil {
		abort(c, err)
		return
	}

	r := resp.Report
	view := analyticsView{
		QuizID:            resp.QuizID,
		QuizTitle:         resp.QuizTitle,
		SubmissionCount:   r.SubmissionCount,
		AverageScore:      r.AverageScore,
		AveragePercentage: r.AveragePercentage,
		PassRate:          r.PassRate,
		Highest:           viewSummary(r.Highest),
		Lowest:            viewSummary(r.Lowest),
		Questions:         make([]questionStatsView, 0, len(r.Questions)),
	}

	for _, qs := range r.Questions {
		view.Questions = append(view.Questions, questionStatsView{
			QuestionID:     qs.QuestionID,
			QuestionText:   qs.Text,
			QuestionType:   string(qs.Type),
			TotalAnswers:   qs.TotalAnswers,
			CorrectAnswers: qs.CorrectAnswers,
			Accuracy:       qs.Accuracy,
		})
	}

	c.JSON(http.StatusOK, view)
}

func viewSummary(s *analytics.SubmissionSummary) *submissionSummaryView {
	if s == nil {
		return nil
	}

	return &submissionSummaryView{
		ID:             s.SubmissionID,
		TakerName:      s.TakerName,
		Score:          s.Score,
		TotalQuestions: s.TotalQuestions,
		Percentage:     s.Percentage,
		SubmittedAt:    s.SubmitTime,
	}
}
