package biz

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/log"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/db"
)

type LeadServiceParams struct {
	fx.In

	DB *db.DB
}

func NewLeadService(params LeadServiceParams) *LeadService {
	return &LeadService{db: params.DB}
}

type LeadService struct {
	db *db.DB
}

type CreateLeadInput struct {
	Name       string
	Email      string
	Phone      string
	Message    string
	SourcePath string
}

type RecordVisitInput struct {
	VisitorID string
	Path      string
	Referrer  string
	UserAgent string
}

// CreateLead captures a contact-form submission. Open to guests.
func (s *LeadService) CreateLead(ctx context.Context, input CreateLeadInput) (*objects.LeadInfo, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, invalid("name", "must not be empty")
	}

	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, invalid("email", "must be a valid address")
	}

	ident, _ := contexts.GetIdentity(ctx)

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.LeadInfo, error) {
		var l objects.LeadInfo

		err := tx.QueryRowContext(ctx,
			`INSERT INTO leads (name, email, phone, message, source_path)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, name, email, phone, message, source_path, created_at`,
			input.Name, input.Email, input.Phone, input.Message, input.SourcePath,
		).Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Message, &l.SourcePath, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert lead: %w", err)
		}

		return &l, nil
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	log.Info(ctx, "lead captured", log.Int64("lead_id", info.ID))

	return info, nil
}

// RecordVisit stores one page view for visitor analytics. Open to guests.
func (s *LeadService) RecordVisit(ctx context.Context, input RecordVisitInput) error {
	if input.VisitorID == "" {
		return invalid("visitorID", "must not be empty")
	}

	if input.Path == "" {
		return invalid("path", "must not be empty")
	}

	ident, _ := contexts.GetIdentity(ctx)

	err := s.db.InTx(ctx, ident, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO visits (visitor_id, path, referrer, user_agent) VALUES ($1, $2, $3, $4)`,
			input.VisitorID, input.Path, input.Referrer, input.UserAgent,
		)
		if err != nil {
			return fmt.Errorf("insert visit: %w", err)
		}

		return nil
	})
	if err != nil {
		return storeError(ctx, err)
	}

	return nil
}

// ListLeads returns captured leads, newest first.
func (s *LeadService) ListLeads(ctx context.Context) ([]objects.LeadInfo, error) {
	ident, _ := contexts.GetIdentity(ctx)

	leads, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) ([]objects.LeadInfo, error) {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, name, email, phone, message, source_path, created_at
			 FROM leads ORDER BY created_at DESC`,
		)
		if err != nil {
			return nil, fmt.Errorf("select leads: %w", err)
		}
		defer rows.Close()

		var out []objects.LeadInfo

		for rows.Next() {
			var l objects.LeadInfo
			if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Message, &l.SourcePath, &l.CreatedAt); err != nil {
				return nil, err
			}

			out = append(out, l)
		}

		return out, rows.Err()
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return leads, nil
}

// ListVisits returns recent visits, newest first, capped at limit.
func (s *LeadService) ListVisits(ctx context.Context, limit int) ([]objects.VisitInfo, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	ident, _ := contexts.GetIdentity(ctx)

	visits, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) ([]objects.VisitInfo, error) {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, visitor_id, path, referrer, user_agent, created_at
			 FROM visits ORDER BY created_at DESC LIMIT $1`,
			limit,
		)
		if err != nil {
			return nil, fmt.Errorf("select visits: %w", err)
		}
		defer rows.Close()

		var out []objects.VisitInfo

		for rows.Next() {
			var v objects.VisitInfo
			if err := rows.Scan(&v.ID, &v.VisitorID, &v.Path, &v.Referrer, &v.UserAgent, &v.CreatedAt); err != nil {
				return nil, err
			}

			out = append(out, v)
		}

		return out, rows.Err()
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return visits, nil
}
