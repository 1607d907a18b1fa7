//go:build integration_test

package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizforge/internal/api"
	"github.com/victornm/quizforge/internal/domain"
)

const baseURL = "http://localhost:8080/api/v1"

// TestQuizWalkthrough drives the full flow against a running server:
// register an author, create a quiz with questions, take it anonymously,
// then check the result, the analytics and the owner notification.
func TestQuizWalkthrough(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	username := fmt.Sprintf("author-%s", uuid.NewString()[:8])

	var (
		token   string
		ownerID string
	)

	// Register the quiz author
	{
		var resp struct {
			UserID string `json:"user_id"`
			Token  string `json:"token"`
		}
		post(t, ctx, "/auth/register", "", map[string]any{
			"username": username,
			"password": "correct horse battery",
		}, http.StatusCreated, &resp)

		require.NotEmpty(t, resp.Token)
		token = resp.Token
		ownerID = resp.UserID
	}

	// Subscribe to the owner's notification channel before anyone submits
	wg := subscribeAsOwner(t, makeRedis(t), ownerID)

	var quizID string

	// Create the quiz with its questions in one call
	{
		var resp struct {
			ID        string `json:"id"`
			ShareLink string `json:"share_link"`
		}
		post(t, ctx, "/quizzes/create-with-questions", token, map[string]any{
			"title":       "Geography 101",
			"description": "Capitals and rivers",
			"questions": []map[string]any{
				{
					"question_text": "Capital of France?",
					"question_type": "mcq",
					"choices": []map[string]any{
						{"choice_text": "Paris", "is_correct": true},
						{"choice_text": "Lyon"},
					},
				},
				{
					"question_text": "The Danube flows into the Black Sea.",
					"question_type": "true_false",
					"choices": []map[string]any{
						{"choice_text": "True", "is_correct": true},
						{"choice_text": "False"},
					},
				},
				{
					"question_text": "Longest river in the world?",
					"question_type": "text",
					"correct_text_answer": "Nile",
				},
			},
		}, http.StatusCreated, &resp)

		require.NotEmpty(t, resp.ID)
		require.NotEmpty(t, resp.ShareLink)
		quizID = resp.ID
	}

	// Fetch the public view and answer from it, as a taker would
	var answers []map[string]any
	{
		var resp struct {
			Questions []struct {
				ID           string `json:"id"`
				QuestionType string `json:"question_type"`
				Choices      []struct {
					ID         string `json:"id"`
					ChoiceText string `json:"choice_text"`
				} `json:"choices"`
			} `json:"questions"`
		}
		get(t, ctx, "/quizzes/public/"+quizID, "", http.StatusOK, &resp)
		require.Len(t, resp.Questions, 3)

		for _, q := range resp.Questions {
			a := map[string]any{"question_id": q.ID}
			switch q.QuestionType {
			case "text":
				a["text_answer"] = "nile"
			default:
				// Pick the first choice, right or wrong.
				a["selected_choice_id"] = q.Choices[0].ID
			}
			answers = append(answers, a)
		}
	}

	// Submit anonymously
	{
		var resp struct {
			ID         string  `json:"id"`
			Score      int     `json:"score"`
			Percentage float64 `json:"percentage"`
		}
		post(t, ctx, "/quizzes/public/"+quizID+"/submit", "", map[string]any{
			"taker_name": "Walkthrough Taker",
			"answers":    answers,
		}, http.StatusCreated, &resp)

		require.NotEmpty(t, resp.ID)
		t.Logf("submitted: score=%d percentage=%.1f", resp.Score, resp.Percentage)
	}

	// The owner checks the analytics
	{
		var resp struct {
			SubmissionCount int `json:"submission_count"`
			Questions       []struct {
				QuestionText string  `json:"question_text"`
				Accuracy     float64 `json:"accuracy"`
			} `json:"questions"`
		}
		get(t, ctx, "/quizzes/"+quizID+"/analytics", token, http.StatusOK, &resp)

		require.GreaterOrEqual(t, resp.SubmissionCount, 1)
		require.Len(t, resp.Questions, 3)
	}

	wg.Wait()
}

func post(t *testing.T, ctx context.Context, path, token string, body any, wantStatus int, out any) {
	t.Helper()
	do(t, ctx, http.MethodPost, path, token, body, wantStatus, out)
}

func get(t *testing.T, ctx context.Context, path, token string, wantStatus int, out any) {
	t.Helper()
	do(t, ctx, http.MethodGet, path, token, nil, wantStatus, out)
}

func do(t *testing.T, ctx context.Context, method, path, token string, body any, wantStatus int, out any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	require.Equalf(t, wantStatus, resp.StatusCode, "%s %s: %s", method, path, raw)

	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out))
	}
}

func subscribeAsOwner(t *testing.T, rc redis.UniversalClient, ownerID string) *sync.WaitGroup {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	t.Cleanup(cancel)

	sub := rc.Subscribe(ctx, fmt.Sprintf("quizforge:owner:%s", ownerID))
	t.Cleanup(func() { sub.Close() })

	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	wg := new(sync.WaitGroup)
	wg.Add(1)
	go func() {
		defer wg.Done()

		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			t.Errorf("receive notification: %v", err)
			return
		}

		var n struct {
			Event string                `json:"event"`
			Data  api.SubmissionCreated `json:"data"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
			t.Errorf("unmarshal notification: %v", err)
			return
		}

		if n.Event != domain.EventNameSubmissionCreated {
			t.Errorf("unexpected event %q", n.Event)
			return
		}

		t.Logf("owner notified: %q scored %d/%d (%.1f%%)",
			n.Data.TakerName, n.Data.Score, n.Data.TotalQuestions, n.Data.Percentage)
	}()

	return wg
}

func makeRedis(t *testing.T) redis.UniversalClient {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{"localhost:6379"},
	})
	require.NoError(t, rc.Ping(ctx).Err())

	return rc
}
