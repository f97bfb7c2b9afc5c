package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/biz"
)

type PushHandlersParams struct {
	fx.In

	PushService *biz.PushService
}

func NewPushHandlers(params PushHandlersParams) *PushHandlers {
	return &PushHandlers{
		PushService: params.PushService,
	}
}

type PushHandlers struct {
	PushService *biz.PushService
}

type SubscribeRequest struct {
	Endpoint string          `json:"endpoint"`
	Keys     json.RawMessage `json:"keys"`
}

// Subscribe registers a push subscription.
func (h *PushHandlers) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("invalid request format"))
		return
	}

	sub, err := h.PushService.Subscribe(c.Request.Context(), biz.SubscribeInput{
		Endpoint: req.Endpoint,
		Keys:     req.Keys,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusCreated, gin.H{"subscription": sub})
}

// ListSubscriptions returns registered subscriptions.
func (h *PushHandlers) ListSubscriptions(c *gin.Context) {
	subs, err := h.PushService.ListSubscriptions(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"subscriptions": subs})
}

// Send dispatches a notification to every subscription.
func (h *PushHandlers) Send(c *gin.Context) {
	var msg objects.PushMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("invalid request format"))
		return
	}

	report, err := h.PushService.SendNotification(c.Request.Context(), msg)
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"report": report})
}
