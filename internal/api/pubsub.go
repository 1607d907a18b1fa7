package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/victornm/quizforge/internal/domain"
)

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	// SubmissionCreated is the payload owners receive on their pubsub
	// channel whenever someone completes one of their quizzes.
	SubmissionCreated struct {
		QuizID         string    `json:"quiz_id"`
		QuizTitle      string    `json:"quiz_title"`
		SubmissionID   string    `json:"submission_id"`
		TakerName      string    `json:"taker_name"`
		Score          int       `json:"score"`
		TotalQuestions int       `json:"total_questions"`
		Percentage     float64   `json:"percentage"`
		SubmittedAt    time.Time `json:"submitted_at"`
	}
)

func (a *API) PublishSubmissionCreated(ctx context.Context, e domain.EventSubmissionCreated) error {
	sub := e.Submission

	data := SubmissionCreated{
		QuizID:         sub.QuizID,
		QuizTitle:      e.QuizTitle,
		SubmissionID:   sub.SubmissionID,
		TakerName:      sub.TakerName,
		Score:          sub.Score,
		TotalQuestions: sub.TotalQuestions,
		Percentage:     sub.Percentage(),
		SubmittedAt:    sub.SubmitTime,
	}

	return a.publishNotification(ctx, e.OwnerID, e.Name(), data)
}

func (a *API) publishNotification(ctx context.Context, owner, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, fmt.Sprintf("%s:owner:%s", a.prefix, owner), b).Err()
}
