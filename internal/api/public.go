package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/victornm/quizforge/internal/quiz"
	"github.com/victornm/quizforge/internal/submission"
)

func (a *API) handlePublicQuiz(c *gin.Context) {
	q, err := a.qs.PublicQuiz(c.Request.Context(), quiz.PublicQuizRequest{
		QuizID: c.Param("id"),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, viewQuiz(q, false))
}

type answerSpec struct {
	QuestionID       string `json:"question_id"`
	SelectedChoiceID string `json:"selected_choice_id"`
	TextAnswer       string `json:"text_answer"`
}

type submitQuizRequest struct {
	TakerName string       `json:"taker_name"`
	Answers   []answerSpec `json:"answers"`
}

type answerReview struct {
	QuestionText       string `json:"question_text"`
	QuestionType       string `json:"question_type"`
	SelectedChoiceText string `json:"selected_choice_text"`
	TextAnswer         string `json:"text_answer"`
	IsCorrect          bool   `json:"is_correct"`
	CorrectChoice      string `json:"correct_choice,omitempty"`
	CorrectText        string `json:"correct_text,omitempty"`
}

type submissionResult struct {
	ID             string         `json:"id"`
	QuizTitle      string         `json:"quiz_title"`
	TakerName      string         `json:"taker_name"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	Percentage     float64        `json:"percentage"`
	SubmittedAt    time.Time      `json:"submitted_at"`
	Answers        []answerReview `json:"answers"`
}

func (a *API) handleSubmitQuiz(c *gin.Context) {
	quizID := c.Param("id")

	if err := a.limiter.Allow(c.Request.Context(), quizID, c.ClientIP()); err != nil {
		abort(c, err)
		return
	}

	var req submitQuizRequest
	if !bindJSON(c, &req) {
		return
	}

	specs := make([]submission.AnswerSpec, 0, len(req.Answers))
	for _, ans := range req.Answers {
		specs = append(specs, submission.AnswerSpec{
			QuestionID: ans.QuestionID,
			ChoiceID:   ans.SelectedChoiceID,
			TextAnswer: ans.TextAnswer,
		})
	}

	resp, err := a.ss.SubmitQuiz(c.Request.Context(), submission.SubmitQuizRequest{
		QuizID:    quizID,
		TakerName: req.TakerName,
		Answers:   specs,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, viewResult(resp))
}

func (a *API) handleGetSubmission(c *gin.Context) {
	resp, err := a.ss.GetSubmission(c.Request.Context(), submission.GetSubmissionRequest{
		QuizID:       c.Param("id"),
		SubmissionID: c.Param("submission_id"),
		RequesterID:  userID(c),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, viewResult(resp))
}

func viewResult(resp *submission.SubmitQuizResponse) submissionResult {
	sub := resp.Submission

	result := submissionResult{
		ID:             sub.SubmissionID,
		QuizTitle:      resp.QuizTitle,
		TakerName:      sub.TakerName,
		Score:          sub.Score,
		TotalQuestions: sub.TotalQuestions,
		Percentage:     sub.Percentage(),
		SubmittedAt:    sub.SubmitTime,
		Answers:        make([]answerReview, 0, len(resp.Answers)),
	}

	for _, ans := range resp.Answers {
		result.Answers = append(result.Answers, answerReview{
			QuestionText:       ans.QuestionText,
			QuestionType:       string(ans.QuestionType),
			SelectedChoiceText: ans.SelectedChoiceText,
			TextAnswer:         ans.TextAnswer,
			IsCorrect:          ans.IsCorrect,
			CorrectChoice:      ans.CorrectChoice,
			CorrectText:        ans.CorrectText,
		})
	}

	return result
}
