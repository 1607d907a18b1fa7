package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/quizforge/internal/analytics"
	"github.com/victornm/quizforge/internal/auth"
	"github.com/victornm/quizforge/internal/domain"
	"github.com/victornm/quizforge/internal/errors"
	"github.com/victornm/quizforge/internal/event"
	"github.com/victornm/quizforge/internal/quiz"
	"github.com/victornm/quizforge/internal/ratelimit"
	"github.com/victornm/quizforge/internal/submission"
)

type Config struct {
	Engine       *gin.Engine
	EventBus     *event.Bus
	Auth         *auth.Service
	Quiz         *quiz.Service
	Submission   *submission.Service
	Analytics    *analytics.Service
	Limiter      *ratelimit.Limiter
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	auth    *auth.Service
	qs      *quiz.Service
	ss      *submission.Service
	as      *analytics.Service
	limiter *ratelimit.Limiter

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		auth:    c.Auth,
		qs:      c.Quiz,
		ss:      c.Submission,
		as:      c.Analytics,
		limiter: c.Limiter,
		redis:   c.Redis,
		prefix:  c.PubsubPrefix,
	}

	a.registerRoutes(c.Engine)

	// Register event handlers
	c.EventBus.Subscribe(domain.EventNameSubmissionCreated, func(ctx context.Context, e event.Event) error {
		return a.PublishSubmissionCreated(ctx, e.(domain.EventSubmissionCreated))
	})

	return a
}

func (a *API) registerRoutes(e *gin.Engine) {
	v1 := e.Group("/api/v1")

	v1.POST("/auth/register", a.handleRegister)
	v1.POST("/auth/login", a.handleLogin)

	// Public taking endpoints, no authentication.
	public := v1.Group("/quizzes/public")
	public.GET("/:id", a.handlePublicQuiz)
	public.POST("/:id/submit", a.handleSubmitQuiz)

	// Authoring, review and analytics, owner-authenticated.
	owned := v1.Group("/quizzes", AuthRequired(a.auth.Tokens()))
	owned.GET("", a.handleListQuizzes)
	owned.POST("", a.handleCreateQuiz)
	owned.POST("/create-with-questions", a.handleCreateQuizWithQuestions)
	owned.GET("/:id", a.handleGetQuiz)
	owned.DELETE("/:id", a.handleDeleteQuiz)
	owned.GET("/:id/analytics", a.handleQuizAnalytics)
	owned.GET("/:id/submissions/:submission_id", a.handleGetSubmission)
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func abort(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: internal error",
			"path", c.FullPath(),
			"error", e,
		)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), errorResponse{
		Error:  e.Message,
		Fields: e.Fields,
	})
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid request body: %v", err),
			errors.WithCause(err),
		))
		return false
	}
	return true
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (a *API) handleRegister(c *gin.Context) {
	var req authRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := a.auth.Register(c.Request.Context(), auth.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{
		UserID:   resp.UserID,
		Username: resp.Username,
		Token:    resp.Token,
	})
}

func (a *API) handleLogin(c *gin.Context) {
	var req authRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := a.auth.Login(c.Request.Context(), auth.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		UserID:   resp.UserID,
		Username: resp.Username,
		Token:    resp.Token,
	})
}
