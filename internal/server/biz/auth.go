package biz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"

	"github.com/mercatohq/mercato/internal/authz"
	"github.com/mercatohq/mercato/internal/log"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/db"
)

// AuthConfig carries the credential-verification settings.
type AuthConfig struct {
	// SecretKey signs and verifies tokens (HS256).
	SecretKey string `conf:"secret_key" yaml:"secret_key" json:"secret_key"`

	// TokenTTL bounds token lifetime. Defaults to 7 days.
	TokenTTL time.Duration `conf:"token_ttl" yaml:"token_ttl" json:"token_ttl"`

	// BootstrapEmail/BootstrapPassword create the initial admin account when
	// the users table is empty.
	BootstrapEmail    string `conf:"bootstrap_email"    yaml:"bootstrap_email"    json:"bootstrap_email"`
	BootstrapPassword string `conf:"bootstrap_password" yaml:"bootstrap_password" json:"bootstrap_password"`
}

type AuthServiceParams struct {
	fx.In

	Config AuthConfig
	DB     *db.DB
}

func NewAuthService(params AuthServiceParams) *AuthService {
	cfg := params.Config
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}

	return &AuthService{config: cfg, db: params.DB}
}

type AuthService struct {
	config AuthConfig
	db     *db.DB
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashed), nil
}

// VerifyPassword verifies a password against a hash.
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// IssueToken generates a signed token for the identity.
func (s *AuthService) IssueToken(ident authz.Identity) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  ident.SubjectID,
		"role": ident.Role.String(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.config.TokenTTL).Unix(),
	})

	signed, err := token.SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ResolveIdentity verifies a bearer token and extracts the caller identity.
// It is a pure function of the token and the configured key: no database
// access, no side effects. Any verification failure (malformed, expired, bad
// signature, unknown role claim) returns ErrInvalidToken; it is never
// downgraded to anonymous.
func (s *AuthService) ResolveIdentity(tokenString string) (*authz.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method: %v", ErrInvalidToken, token.Header["alg"])
		}

		return []byte(s.config.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse token: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return nil, fmt.Errorf("%w: missing subject claim", ErrInvalidToken)
	}

	roleClaim, ok := claims["role"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing role claim", ErrInvalidToken)
	}

	role, err := authz.ParseRole(roleClaim)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return &authz.Identity{SubjectID: subject, Role: role}, nil
}

// SignIn authenticates an email/password pair and issues a token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*objects.UserInfo, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, "", invalid("email", "must not be empty")
	}

	type userRow struct {
		info objects.UserInfo
		hash string
	}

	row, err := db.Run(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) (userRow, error) {
		var r userRow

		err := tx.QueryRowContext(ctx,
			`SELECT id, email, password_hash, name, role, created_at FROM users WHERE email = $1`,
			email,
		).Scan(&r.info.ID, &r.info.Email, &r.hash, &r.info.Name, &r.info.Role, &r.info.CreatedAt)

		return r, err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrInvalidPassword
		}

		log.Error(ctx, "failed to look up user", log.Cause(err))

		return nil, "", ErrInternal
	}

	if err := VerifyPassword(row.hash, password); err != nil {
		return nil, "", ErrInvalidPassword
	}

	role, err := authz.ParseRole(row.info.Role)
	if err != nil {
		// A stored role outside the closed set is a data-integrity error.
		log.Error(ctx, "user has unknown role", log.Int64("user_id", row.info.ID), log.Cause(err))

		return nil, "", ErrInternal
	}

	ident := authz.Identity{SubjectID: strconv.FormatInt(row.info.ID, 10), Role: role}

	token, err := s.IssueToken(ident)
	if err != nil {
		log.Error(ctx, "failed to issue token", log.Cause(err))

		return nil, "", ErrInternal
	}

	log.Debug(ctx, "user signed in", log.Int64("user_id", row.info.ID))

	return &row.info, token, nil
}

// EnsureBootstrapAdmin creates the initial admin account when the users table
// is empty and bootstrap credentials are configured.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context) error {
	if s.config.BootstrapEmail == "" || s.config.BootstrapPassword == "" {
		return nil
	}

	hash, err := HashPassword(s.config.BootstrapPassword)
	if err != nil {
		return err
	}

	return s.db.InTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
		var count int64
		if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
			return fmt.Errorf("count users: %w", err)
		}

		if count > 0 {
			return nil
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (email, password_hash, name, role) VALUES ($1, $2, $3, 'admin')`,
			strings.ToLower(s.config.BootstrapEmail), hash, "Administrator",
		)
		if err != nil {
			return fmt.Errorf("create bootstrap admin: %w", err)
		}

		log.Info(ctx, "created bootstrap admin", log.String("email", s.config.BootstrapEmail))

		return nil
	})
}
