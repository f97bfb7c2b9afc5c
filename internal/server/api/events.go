package api

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/pkg/broadcast"
)

type EventsHandlersParams struct {
	fx.In

	Broadcaster *broadcast.Broadcaster
}

func NewEventsHandlers(params EventsHandlersParams) *EventsHandlers {
	return &EventsHandlers{
		Broadcaster: params.Broadcaster,
	}
}

type EventsHandlers struct {
	Broadcaster *broadcast.Broadcaster
}

// Stream serves server-sent events until the client disconnects.
func (h *EventsHandlers) Stream(c *gin.Context) {
	events, cancel := h.Broadcaster.Subscribe()
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}

			c.Render(-1, event)

			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
