package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SessionTTL is how long an issued token stays valid.
const SessionTTL = 24 * time.Hour

// resetTTL is how long a password-reset token stays valid.
const resetTTL = time.Hour

// PostgresProvider implements Provider against the users/profiles tables,
// with bcrypt password hashes and HS256 session tokens.
type PostgresProvider struct {
	pool   *pgxpool.Pool
	secret []byte
	logger *zap.Logger
}

// NewPostgresProvider creates the credential backend.
func NewPostgresProvider(pool *pgxpool.Pool, jwtSecret string, logger *zap.Logger) *PostgresProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresProvider{pool: pool, secret: []byte(jwtSecret), logger: logger}
}

func (p *PostgresProvider) issue(id Identity) (*Session, error) {
	expires := time.Now().Add(SessionTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   id.ID,
		"email": id.Email,
		"exp":   expires.Unix(),
		"iat":   time.Now().Unix(),
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: signed, Identity: id, ExpiresAt: expires}, nil
}

// SignIn verifies the password and issues a session.
func (p *PostgresProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var (
		id, hash string
		username *string
	)
	err := p.pool.QueryRow(ctx, `
		SELECT u.id, u.password_hash, pr.username
		FROM users u
		LEFT JOIN profiles pr ON pr.id = u.id
		WHERE u.email = $1
	`, strings.ToLower(email)).Scan(&id, &hash, &username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	identity := Identity{ID: id, Email: strings.ToLower(email)}
	if username != nil {
		identity.Username = *username
	}
	return p.issue(identity)
}

// SignUp creates the account with a profile whose username defaults to the
// email's local part, then issues a session.
func (p *PostgresProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	email = strings.ToLower(email)
	userID := uuid.New().String()
	username := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		username = email[:at]
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3)",
		userID, email, string(hash)); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO profiles (id, username) VALUES ($1, $2)",
		userID, username); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return p.issue(Identity{ID: userID, Email: email, Username: username})
}

// SignOut is a no-op for stateless tokens; the session simply stops being
// presented. Kept on the interface so a revoking backend can slot in.
func (p *PostgresProvider) SignOut(ctx context.Context, token string) error {
	return nil
}

// RequestPasswordReset records a reset token. Delivering it by email is an
// external collaborator's job; the token is only logged here.
func (p *PostgresProvider) RequestPasswordReset(ctx context.Context, email string) error {
	var userID string
	err := p.pool.QueryRow(ctx,
		"SELECT id FROM users WHERE email = $1", strings.ToLower(email)).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Do not reveal whether the account exists.
			return nil
		}
		return fmt.Errorf("look up user: %w", err)
	}

	token := uuid.New().String()
	_, err = p.pool.Exec(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, time.Now().Add(resetTTL))
	if err != nil {
		return fmt.Errorf("record reset: %w", err)
	}

	p.logger.Info("password reset requested", zap.String("user_id", userID))
	return nil
}

// UpdatePassword replaces the stored hash for the given user.
func (p *PostgresProvider) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	tag, err := p.pool.Exec(ctx,
		"UPDATE users SET password_hash = $1 WHERE id = $2", string(hash), userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidCredentials
	}
	return nil
}

// Verify parses a session token and resolves it to an identity, picking up
// the current profile username.
func (p *PostgresProvider) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	userID, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if userID == "" || email == "" {
		return nil, ErrInvalidCredentials
	}

	identity := Identity{ID: userID, Email: email}
	var username *string
	err = p.pool.QueryRow(ctx,
		"SELECT username FROM profiles WHERE id = $1", userID).Scan(&username)
	if err == nil && username != nil {
		identity.Username = *username
	}
	return &identity, nil
}
