package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"permithub/internal/dispatch"
	"permithub/internal/notify"
	"permithub/internal/push"
	"permithub/internal/store"
)

// Sender is the dispatch entry point the send route needs; *dispatch.Dispatcher
// satisfies it.
type Sender interface {
	Dispatch(ctx context.Context, req dispatch.Request) (string, error)
}

type Dependencies struct {
	SessionSecret  []byte
	Store          *store.Store
	Sender         Sender
	SendLimiter    *SendLimiter
	VapidPublicKey string
	CorsOrigins    []string
	Production     bool
	Log            zerolog.Logger
}

const maxBodyBytes = 64 * 1024

func RegisterRoutes(router *Router, deps Dependencies) {
	session := SessionMiddleware(deps.SessionSecret)
	cors := CORSMiddleware(CORSConfig{Origins: deps.CorsOrigins})
	rateLimited := RateLimitMiddleware(deps.SendLimiter)
	logged := LogMiddleware(deps.Log)

	router.SetPreflight(cors(func(w http.ResponseWriter, req *http.Request, params Params) {}))

	router.Handle(http.MethodGet, "/healthz", withMiddleware(func(w http.ResponseWriter, req *http.Request, params Params) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}, logged, cors))

	// Public: the background worker fetches its own configuration because it
	// runs outside any authed page context.
	router.Handle(http.MethodGet, "/api/push/config", withMiddleware(func(w http.ResponseWriter, req *http.Request, params Params) {
		writeJSON(w, http.StatusOK, map[string]string{
			"vapidPublicKey": deps.VapidPublicKey,
		})
	}, logged, cors))

	router.Handle(http.MethodGet, "/api/push/vapid-public-key", withMiddleware(func(w http.ResponseWriter, req *http.Request, params Params) {
		writeJSON(w, http.StatusOK, map[string]string{
			"vapidPublicKey": deps.VapidPublicKey,
		})
	}, logged, cors, session))

	router.Handle(http.MethodPost, "/api/push/register", withMiddleware(func(w http.ResponseWriter, req *http.Request, params Params) {
		claims, _ := SessionFromContext(req.Context())

		var body struct {
			ChannelHandle string `json:"channelHandle"`
			Role          string `json:"role"`
		}
		if err := decodeJSON(req, &body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid request body", nil))
			return
		}
		if body.ChannelHandle == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("channelHandle is required", nil))
			return
		}
		if _, err := push.DecodeHandle(body.ChannelHandle); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("channelHandle is not a valid channel handle", nil))
			return
		}
		// The session is authoritative for the role; the body copy exists so
		// stale clients surface a loud mismatch instead of silently drifting.
		if body.Role != "" && body.Role != claims.Role {
			writeJSON(w, http.StatusBadRequest, errorBody("role does not match session", nil))
			return
		}

		err := deps.Store.UpsertRegistration(claims.Email, body.ChannelHandle, claims.Role)
		if err != nil {
			deps.Log.Error().Err(err).Msg("registration upsert failed")
			writeJSON(w, http.StatusInternalServerError, maskedError("failed to save registration", err, deps.Production))
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}, logged, cors, session))

	router.Handle(http.MethodDelete, "/api/push/register", withMiddleware(func(w http.ResponseWriter, req *http.Request, params Params) {
		claims, _ := SessionFromContext(req.Context())

		if err := deps.Store.DeleteRegistration(claims.Email); err != nil {
			deps.Log.Error().Err(err).Msg("registration delete failed")
			writeJSON(w, http.StatusInternalServerError, maskedError("failed to remove registration", err, deps.Production))
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}, logged, cors, session))

	router.Handle(http.MethodPost, "/api/notifications/send", withMiddleware(func(w http.ResponseWriter, req *http.Request, params Params) {
		claims, _ := SessionFromContext(req.Context())

		var body struct {
			TargetUserEmail string            `json:"targetUserEmail"`
			Title           string            `json:"title"`
			Body            string            `json:"body"`
			Type            string            `json:"type"`
			EventID         string            `json:"eventId"`
			Data            map[string]string `json:"data"`
		}
		if err := decodeJSON(req, &body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid request body", nil))
			return
		}

		messageID, err := deps.Sender.Dispatch(req.Context(), dispatch.Request{
			TargetUserEmail: body.TargetUserEmail,
			Title:           body.Title,
			Body:            body.Body,
			Source:          notify.SourceType(body.Type),
			EventID:         body.EventID,
			Data:            body.Data,
		})
		if err != nil {
			writeDispatchError(w, err, deps.Production, deps.Log.With().Str("sender", claims.Email).Logger())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"messageId": messageID,
		})
	}, logged, cors, session, rateLimited))
}

// writeDispatchError maps the dispatch taxonomy onto HTTP statuses. The
// unregistered-recipient case is a 404 whose body carries no more detail
// than any other delivery failure, so callers cannot probe which addresses
// hold a registration.
func writeDispatchError(w http.ResponseWriter, err error, production bool, log zerolog.Logger) {
	if de, ok := dispatch.AsError(err); ok {
		switch de.Code {
		case notify.CodeValidation:
			writeJSON(w, http.StatusBadRequest, errorBody(de.Public, nil))
			return
		case notify.CodeRecipientNotRegistered:
			log.Info().Msg("dispatch failed: recipient has no registration")
			writeJSON(w, http.StatusNotFound, errorBody(de.Public, nil))
			return
		}
	}

	log.Error().Err(err).Msg("dispatch failed")
	writeJSON(w, http.StatusInternalServerError, maskedError("failed to send notification", err, production))
}

func maskedError(message string, err error, production bool) map[string]string {
	if production {
		return errorBody(message, nil)
	}
	return errorBody(message, err)
}

func decodeJSON(req *http.Request, dest any) error {
	defer req.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes))
	return decoder.Decode(dest)
}
