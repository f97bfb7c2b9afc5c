package biz

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/log"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/pkg/broadcast"
	"github.com/mercatohq/mercato/internal/server/db"
)

// Provider delivers one payload to one push subscription.
type Provider interface {
	Deliver(ctx context.Context, endpoint string, keys json.RawMessage, payload any) error
}

type PushServiceParams struct {
	fx.In

	DB          *db.DB
	Provider    Provider
	Broadcaster *broadcast.Broadcaster
}

func NewPushService(params PushServiceParams) *PushService {
	return &PushService{
		db:          params.DB,
		provider:    params.Provider,
		broadcaster: params.Broadcaster,
	}
}

type PushService struct {
	db          *db.DB
	provider    Provider
	broadcaster *broadcast.Broadcaster
}

type SubscribeInput struct {
	Endpoint string
	Keys     json.RawMessage
}

// Subscribe registers a push subscription, keyed by endpoint. Re-subscribing
// with the same endpoint refreshes the keys instead of failing.
func (s *PushService) Subscribe(ctx context.Context, input SubscribeInput) (*objects.PushSubscriptionInfo, error) {
	input.Endpoint = strings.TrimSpace(input.Endpoint)
	if input.Endpoint == "" {
		return nil, invalid("endpoint", "must not be empty")
	}

	if len(input.Keys) == 0 || !json.Valid(input.Keys) {
		return nil, invalid("keys", "must be a JSON object")
	}

	ident, _ := contexts.GetIdentity(ctx)

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.PushSubscriptionInfo, error) {
		var sub objects.PushSubscriptionInfo

		err := tx.QueryRowContext(ctx,
			`INSERT INTO push_subscriptions (endpoint, keys)
			 VALUES ($1, $2)
			 ON CONFLICT (endpoint) DO UPDATE SET keys = EXCLUDED.keys
			 RETURNING id, endpoint, keys, created_at`,
			input.Endpoint, []byte(input.Keys),
		).Scan(&sub.ID, &sub.Endpoint, &sub.Keys, &sub.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("upsert push subscription: %w", err)
		}

		return &sub, nil
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return info, nil
}

// ListSubscriptions returns all registered subscriptions, newest first.
func (s *PushService) ListSubscriptions(ctx context.Context) ([]objects.PushSubscriptionInfo, error) {
	ident, _ := contexts.GetIdentity(ctx)

	subs, err := db.Run(ctx, s.db, ident, loadSubscriptions)
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return subs, nil
}

// SendNotification delivers the message to every subscription. Subscriptions
// are loaded inside the transaction; delivery happens after it commits so no
// connection is held during provider round trips. Failed deliveries are
// counted, not retried.
func (s *PushService) SendNotification(ctx context.Context, msg objects.PushMessage) (*objects.PushReport, error) {
	if strings.TrimSpace(msg.Title) == "" {
		return nil, invalid("title", "must not be empty")
	}

	ident, _ := contexts.GetIdentity(ctx)

	subs, err := db.Run(ctx, s.db, ident, loadSubscriptions)
	if err != nil {
		return nil, storeError(ctx, err)
	}

	report := &objects.PushReport{}

	for _, sub := range subs {
		if err := s.provider.Deliver(ctx, sub.Endpoint, sub.Keys, msg); err != nil {
			report.Failed++

			log.Warn(ctx, "push delivery failed",
				log.Int64("subscription_id", sub.ID),
				log.Cause(err))

			continue
		}

		report.Delivered++
	}

	s.broadcaster.Publish("notification", msg)

	log.Info(ctx, "push notification sent",
		log.Int("delivered", report.Delivered),
		log.Int("failed", report.Failed))

	return report, nil
}

func loadSubscriptions(ctx context.Context, tx *sql.Tx) ([]objects.PushSubscriptionInfo, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, endpoint, keys, created_at
		 FROM push_subscriptions ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select push subscriptions: %w", err)
	}
	defer rows.Close()

	var out []objects.PushSubscriptionInfo

	for rows.Next() {
		var sub objects.PushSubscriptionInfo
		if err := rows.Scan(&sub.ID, &sub.Endpoint, &sub.Keys, &sub.CreatedAt); err != nil {
			return nil, err
		}

		out = append(out, sub)
	}

	return out, rows.Err()
}
