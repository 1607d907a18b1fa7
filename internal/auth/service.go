package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/victornm/quizforge/internal/domain"
	"github.com/victornm/quizforge/internal/errors"
)

type Config struct {
	DB       *pgxpool.Pool
	Secret   string
	TokenTTL time.Duration
}

type Service struct {
	db     *pgxpool.Pool
	tokens *TokenManager
}

func NewService(c Config) *Service {
	return &Service{
		db:     c.DB,
		tokens: NewTokenManager(c.Secret, c.TokenTTL),
	}
}

// Tokens exposes the token manager for the HTTP auth middleware.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

type RegisterRequest struct {
	Username string
	Password string
}

type AuthResponse struct {
	UserID   string
	Username string
	Token    string
}

// Register creates a user account and returns a fresh token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	fields := make(map[string]string)
	if len(req.Username) < 3 || len(req.Username) > 100 {
		fields["username"] = "must be between 3 and 100 characters"
	}
	if len(req.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return nil, errors.Validation(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	const stmt = `INSERT INTO users (user_id, username, password_hash) VALUES ($1, $2, $3);`

	_, err = s.db.Exec(ctx, stmt, id, req.Username, string(hash))

	var pgErr *pgconn.PgError
	const codeUniqueViolation = "23505"
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return nil, errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("username %q is already taken", req.Username),
			errors.WithCause(err),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.respond(id.String(), req.Username)
}

type LoginRequest struct {
	Username string
	Password string
}

// Login verifies credentials and returns a fresh token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	const stmt = `SELECT user_id, username, password_hash, created_at FROM users WHERE username = $1;`

	var u domain.User
	err := s.db.QueryRow(ctx, stmt, req.Username).
		Scan(&u.UserID, &u.Username, &u.PasswordHash, &u.CreateTime)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, invalidCredentials(err)
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalidCredentials(err)
	}

	return s.respond(u.UserID, u.Username)
}

func (s *Service) respond(userID, username string) (*AuthResponse, error) {
	token, err := s.tokens.Generate(userID)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		UserID:   userID,
		Username: username,
		Token:    token,
	}, nil
}

func invalidCredentials(cause error) error {
	return errors.New(errors.CodeUnauthenticated,
		errors.WithMessagef("invalid username or password"),
		errors.WithCause(cause),
	)
}
