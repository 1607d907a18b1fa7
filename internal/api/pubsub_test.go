package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizforge/internal/domain"
)

func TestPublishSubmissionCreated(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err())

	sub := rc.Subscribe(ctx, "local:owner:owner-1")
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx) // wait for the subscription to be active
	require.NoError(t, err)

	a := &API{redis: rc, prefix: "local"}

	err = a.PublishSubmissionCreated(ctx, domain.EventSubmissionCreated{
		OwnerID:   "owner-1",
		QuizTitle: "Geography",
		Submission: domain.Submission{
			SubmissionID:   "sub-1",
			QuizID:         "quiz-1",
			TakerName:      "Alice",
			Score:          2,
			TotalQuestions: 3,
		},
	})
	require.NoError(t, err)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var n struct {
		Event string            `json:"event"`
		Data  SubmissionCreated `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &n))

	require.Equal(t, domain.EventNameSubmissionCreated, n.Event)
	require.Equal(t, "sub-1", n.Data.SubmissionID)
	require.Equal(t, "Geography", n.Data.QuizTitle)
	require.Equal(t, 66.7, n.Data.Percentage)
}
