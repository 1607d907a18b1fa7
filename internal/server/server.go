package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/quizforge/internal/analytics"
	"github.com/victornm/quizforge/internal/api"
	"github.com/victornm/quizforge/internal/auth"
	"github.com/victornm/quizforge/internal/event"
	"github.com/victornm/quizforge/internal/quiz"
	"github.com/victornm/quizforge/internal/ratelimit"
	"github.com/victornm/quizforge/internal/submission"
	"github.com/victornm/quizforge/internal/telemetry"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	CORS struct {
		AllowOrigins []string
	}

	Auth struct {
		Secret        string
		TokenTTLHours int
	}

	Redis struct {
		Addrs  []string
		Pass   string
		Prefix string
	}

	Postgres struct {
		Addr string
		User string
		Pass string
		Name string
	}

	RateLimit struct {
		SubmitLimit   int64
		WindowMinutes int
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis    redis.UniversalClient
		postgres *pgxpool.Pool
	}

	service struct {
		auth       *auth.Service
		quiz       *quiz.Service
		submission *submission.Service
		analytics  *analytics.Service
		limiter    *ratelimit.Limiter
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Redis.Addrs,
		Password: s.c.Redis.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return err
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return err
	}

	s.infra.redis = r
	return nil
}

func (s *Server) initPostgres() (err error) {
	s.infra.postgres, err = ConnectPostgres(context.Background(), s.c)
	return err
}

// ConnectPostgres opens a pgx pool from the server config. The migrate
// command uses it too, so connection handling stays in one place.
func ConnectPostgres(ctx context.Context, c Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	p := c.Postgres
	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", p.User, p.Pass, p.Addr, p.Name))
	if err != nil {
		return nil, err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

func (s *Server) initService() {
	tokenTTL := 24 * time.Hour
	if s.c.Auth.TokenTTLHours > 0 {
		tokenTTL = time.Duration(s.c.Auth.TokenTTLHours) * time.Hour
	}

	s.service.auth = auth.NewService(auth.Config{
		DB:       s.infra.postgres,
		Secret:   s.c.Auth.Secret,
		TokenTTL: tokenTTL,
	})

	s.service.quiz = quiz.NewService(quiz.Config{
		DB: s.infra.postgres,
	})

	s.service.submission = submission.NewService(submission.Config{
		DB:       s.infra.postgres,
		EventBus: s.eb,
		Quiz:     s.service.quiz,
	})

	s.service.analytics = analytics.NewService(analytics.Config{
		DB:   s.infra.postgres,
		Quiz: s.service.quiz,
	})

	s.service.limiter = ratelimit.NewLimiter(ratelimit.Config{
		Redis:  s.infra.redis,
		Prefix: s.c.Redis.Prefix,
		Limit:  s.c.RateLimit.SubmitLimit,
		Window: time.Duration(s.c.RateLimit.WindowMinutes) * time.Minute,
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.Use(gin.Recovery(), telemetry.MonitorHTTP())

	if len(s.c.CORS.AllowOrigins) > 0 {
		e.Use(cors.New(cors.Config{
			AllowOrigins: s.c.CORS.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{"Authorization", "Content-Type"},
		}))
	}

	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	e.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	pprof.Register(e, "/debug/pprof")

	api.New(api.Config{
		Engine:       e,
		EventBus:     s.eb,
		Auth:         s.service.auth,
		Quiz:         s.service.quiz,
		Submission:   s.service.submission,
		Analytics:    s.service.analytics,
		Limiter:      s.service.limiter,
		Redis:        s.infra.redis,
		PubsubPrefix: s.c.Redis.Prefix,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	s.infra.postgres.Close()
	if err := s.infra.redis.Close(); err != nil {
		slog.ErrorContext(ctx, "server: close redis failed", "error", err)
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
