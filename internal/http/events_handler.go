package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/presenter"
	"github.com/fjod/go_storefront/pkg/logger"
)

const defaultKeepAlive = 15 * time.Second

// EventsHandler streams presenter notifications as Server-Sent Events.
type EventsHandler struct {
	hub       *presenter.Hub
	keepAlive time.Duration
	logger    *zap.Logger
}

func NewEventsHandler(hub *presenter.Hub, l *zap.Logger) *EventsHandler {
	return &EventsHandler{
		hub:       hub,
		keepAlive: defaultKeepAlive,
		logger:    logger.OrNop(l).Named("events"),
	}
}

// GET /api/v1/events
//
// A new stream first receives the latest products, cart and busy events, then live ones.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	log := logger.WithContext(r.Context(), h.logger)

	events, cancel := h.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, t := range []presenter.EventType{
		presenter.EventProductsLoaded,
		presenter.EventCartUpdated,
		presenter.EventBusyChanged,
	} {
		if e, ok := h.hub.Latest(t); ok {
			if err := writeEvent(w, e); err != nil {
				log.Debug("event stream closed", zap.Error(err))
				return
			}
		}
	}
	if err := rc.Flush(); err != nil {
		log.Warn("event stream cannot flush", zap.Error(err))
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			err = writeEvent(w, e)
		case <-ticker.C:
			_, err = io.WriteString(w, ": keep-alive\n\n")
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			log.Debug("event stream closed", zap.Error(err))
			return
		}
	}
}

func writeEvent(w io.Writer, e presenter.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
	return err
}
