package dashboard

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/kaireichart/embalse-analysis/reservoir"
)

const writeWait = 10 * time.Second

// wsRequest is one re-run request. Content is the base64 encoded workbook.
type wsRequest struct {
	Filename  string `json:"filename"`
	Content   []byte `json:"content"`
	Frequency string `json:"frequency"`
}

type wsResponse struct {
	OK    bool      `json:"ok"`
	RunID string    `json:"run_id,omitempty"`
	HTML  string    `json:"html,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

// handleWebSocket answers every message with a freshly rendered report. The
// connection keeps no state between messages; each message counts against the
// upload rate limit.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Base64 grows the payload by a third; leave room for the JSON envelope.
	conn.SetReadLimit(h.upload.MaxBytes*4/3 + 4096)
	log.Debug().Str("remote_addr", r.RemoteAddr).Msg("websocket client connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		resp := wsResponse{Error: &apiError{Kind: "rate_limited", Message: errRateLimited}}
		if allowUpload(r, h.limiter, h.metrics) {
			resp = h.answer(r, data)
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn().Err(err).Msg("websocket write failed")
			return
		}
	}
}

func (h *Handler) answer(r *http.Request, data []byte) wsResponse {
	var msg wsRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return wsResponse{Error: &apiError{Kind: "validation", Message: "malformed message: " + err.Error()}}
	}
	if msg.Frequency == "" {
		msg.Frequency = reservoir.DefaultFrequency.Label
	}

	rep, err := h.run(r.Context(), reservoir.Request{
		Filename:  msg.Filename,
		Content:   msg.Content,
		Frequency: msg.Frequency,
	})
	if err != nil {
		return wsResponse{Error: &apiError{Kind: reservoir.ErrorKind(err), Message: err.Error()}}
	}

	page := newPageRenderer()
	if err := reservoir.Present(page, rep); err != nil {
		return wsResponse{Error: &apiError{Kind: "internal", Message: err.Error()}}
	}
	var buf bytes.Buffer
	if err := page.Component(rep).Render(r.Context(), &buf); err != nil {
		return wsResponse{Error: &apiError{Kind: "internal", Message: err.Error()}}
	}
	return wsResponse{OK: true, RunID: rep.RunID, HTML: buf.String()}
}
