package http

import (
	"errors"
	"net/http"

	"devexchange-service/internal/domain"
)

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeStatisticsWS upgrades to a websocket that streams a category's
// statistics: the current snapshot first, then one frame per accepted
// submission. Client messages are ignored; reading only detects the close.
func (h *Handler) ServeStatisticsWS(w http.ResponseWriter, r *http.Request) {
	link, ok, err := queryID(r, "configLinkId")
	if err != nil || !ok {
		http.Error(w, "missing or invalid configLinkId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.svc.Statistics.Subscribe(r.Context(), link)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: publicMessage(err)}})
		return
	}
	defer cancel()

	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	// Single writer goroutine; gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for {
			select {
			case stat, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.WriteJSON(outboundMessage[domain.CategoryStatistic]{Type: "statistics", Payload: stat}); err != nil {
					h.logger.Debug("ws write error", "err", err)
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	close(closeSignals)
	<-writerDone
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrValidation):
		return err.Error()
	default:
		return "internal error"
	}
}
