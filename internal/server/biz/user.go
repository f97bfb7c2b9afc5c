package biz

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/authz"
	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/log"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/db"
)

const minPasswordLength = 8

type UserServiceParams struct {
	fx.In

	DB *db.DB
}

func NewUserService(params UserServiceParams) *UserService {
	return &UserService{db: params.DB}
}

type UserService struct {
	db *db.DB
}

type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// CreateUser creates an account with the given role. Admin only.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*objects.UserInfo, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, invalid("email", "must be a valid address")
	}

	if len(input.Password) < minPasswordLength {
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	role, err := authz.ParseRole(input.Role)
	if err != nil {
		return nil, invalid("role", "must be one of user, editor, admin")
	}

	if role == authz.RoleGuest {
		return nil, invalid("role", "accounts cannot hold the guest role")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		log.Error(ctx, "failed to hash password", log.Cause(err))

		return nil, ErrInternal
	}

	ident, _ := contexts.GetIdentity(ctx)

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.UserInfo, error) {
		var u objects.UserInfo

		err := tx.QueryRowContext(ctx,
			`INSERT INTO users (email, password_hash, name, role)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, email, name, role, created_at`,
			input.Email, hash, input.Name, role.String(),
		).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert user: %w", err)
		}

		return &u, nil
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	log.Info(ctx, "user created",
		log.Int64("user_id", info.ID),
		log.String("role", info.Role))

	return info, nil
}

// ListUsers returns all accounts, newest first. Admin only.
func (s *UserService) ListUsers(ctx context.Context) ([]objects.UserInfo, error) {
	ident, _ := contexts.GetIdentity(ctx)

	users, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) ([]objects.UserInfo, error) {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, email, name, role, created_at FROM users ORDER BY created_at DESC`,
		)
		if err != nil {
			return nil, fmt.Errorf("select users: %w", err)
		}
		defer rows.Close()

		var out []objects.UserInfo

		for rows.Next() {
			var u objects.UserInfo
			if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt); err != nil {
				return nil, err
			}

			out = append(out, u)
		}

		return out, rows.Err()
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return users, nil
}
