package biz

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/pkg/broadcast"
)

type fakeProvider struct {
	delivered []string
	failFor   map[string]error
}

func (p *fakeProvider) Deliver(_ context.Context, endpoint string, _ json.RawMessage, _ any) error {
	if err, ok := p.failFor[endpoint]; ok {
		return err
	}

	p.delivered = append(p.delivered, endpoint)

	return nil
}

var subscriptionColumns = []string{"id", "endpoint", "keys", "created_at"}

func TestSubscribeUpsertsByEndpoint(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewPushService(PushServiceParams{
		DB:          database,
		Provider:    &fakeProvider{},
		Broadcaster: broadcast.New(),
	})

	now := time.Now()
	keys := json.RawMessage(`{"p256dh":"k","auth":"a"}`)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO push_subscriptions`)).
		WithArgs("https://push.example.com/sub-1", []byte(keys)).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).
			AddRow(1, "https://push.example.com/sub-1", []byte(keys), now))
	mock.ExpectCommit()

	sub, err := svc.Subscribe(context.Background(), SubscribeInput{
		Endpoint: "https://push.example.com/sub-1",
		Keys:     keys,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), sub.ID)

	// Re-subscribing with the same endpoint refreshes the keys on the
	// existing row instead of failing.
	freshKeys := json.RawMessage(`{"p256dh":"k2","auth":"a2"}`)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO push_subscriptions`)).
		WithArgs("https://push.example.com/sub-1", []byte(freshKeys)).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).
			AddRow(1, "https://push.example.com/sub-1", []byte(freshKeys), now))
	mock.ExpectCommit()

	refreshed, err := svc.Subscribe(context.Background(), SubscribeInput{
		Endpoint: "https://push.example.com/sub-1",
		Keys:     freshKeys,
	})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, refreshed.ID)
	assert.JSONEq(t, string(freshKeys), string(refreshed.Keys))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeValidation(t *testing.T) {
	database, _ := newMockDB(t)
	svc := NewPushService(PushServiceParams{
		DB:          database,
		Provider:    &fakeProvider{},
		Broadcaster: broadcast.New(),
	})

	var vErr *ValidationError

	_, err := svc.Subscribe(context.Background(), SubscribeInput{Keys: json.RawMessage(`{}`)})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "endpoint", vErr.Field)

	_, err = svc.Subscribe(context.Background(), SubscribeInput{
		Endpoint: "https://push.example.com/sub-1",
		Keys:     json.RawMessage(`{not json`),
	})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "keys", vErr.Field)
}

func TestSendNotificationCountsFailures(t *testing.T) {
	database, mock := newMockDB(t)

	provider := &fakeProvider{
		failFor: map[string]error{
			"https://push.example.com/sub-2": errors.New("gone"),
		},
	}
	broadcaster := broadcast.New()

	svc := NewPushService(PushServiceParams{
		DB:          database,
		Provider:    provider,
		Broadcaster: broadcaster,
	})

	events, cancelEvents := broadcaster.Subscribe()
	defer cancelEvents()

	now := time.Now()
	keys := []byte(`{}`)

	mock.ExpectBegin()
	expectIdentity(mock, "1", "admin")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM push_subscriptions ORDER BY created_at DESC`)).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).
			AddRow(1, "https://push.example.com/sub-1", keys, now).
			AddRow(2, "https://push.example.com/sub-2", keys, now).
			AddRow(3, "https://push.example.com/sub-3", keys, now))
	mock.ExpectCommit()

	report, err := svc.SendNotification(adminContext(), objects.PushMessage{
		Title: "New product",
		Body:  "Gear pumps are in stock.",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t,
		[]string{"https://push.example.com/sub-1", "https://push.example.com/sub-3"},
		provider.delivered)

	// The send is also announced on the event stream.
	select {
	case event := <-events:
		assert.Equal(t, "notification", event.Event)
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast event")
	}

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSendNotificationRequiresTitle(t *testing.T) {
	database, _ := newMockDB(t)
	svc := NewPushService(PushServiceParams{
		DB:          database,
		Provider:    &fakeProvider{},
		Broadcaster: broadcast.New(),
	})

	_, err := svc.SendNotification(context.Background(), objects.PushMessage{})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Field)
}
