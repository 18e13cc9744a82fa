package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"boltalka-bot/internal/telegram"

	"github.com/rs/zerolog/log"
)

const maxUpdateBytes = 1 << 20

type UpdateHandler interface {
	Handle(ctx context.Context, upd telegram.Update) error
}

// WebhookHandler decodes one update and dispatches it synchronously. Dispatch
// failures are logged and still answered 200 so Telegram does not redeliver.
func WebhookHandler(h UpdateHandler, timeout time.Duration, m *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upd telegram.Update
		body := http.MaxBytesReader(w, r.Body, maxUpdateBytes)
		if err := json.NewDecoder(body).Decode(&upd); err != nil {
			m.update("bad_request")
			WriteHTTPError(w, http.StatusBadRequest, "invalid_update")
			return
		}

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		err := h.Handle(ctx, upd)
		m.observe(time.Since(start).Seconds())
		if err != nil {
			m.update("handler_error")
			log.Error().Err(err).Int64("update_id", upd.UpdateID).Msg("update handling failed")
		} else {
			m.update("ok")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
