package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"permithub/internal/notify"
	"permithub/internal/push"
	"permithub/internal/store"
)

// Registrations is the slice of the document store the dispatcher needs;
// *store.Store satisfies it.
type Registrations interface {
	GetRegistration(userEmail string) (*store.Registration, error)
	DeleteRegistration(userEmail string) error
}

// Request is one dispatch call. Length caps follow the worker's rendering
// limits; anything longer would be truncated on screen anyway.
type Request struct {
	TargetUserEmail string            `validate:"required,email,max=254"`
	Title           string            `validate:"required,max=100"`
	Body            string            `validate:"required,max=500"`
	Source          notify.SourceType `validate:"required"`
	EventID         string            `validate:"max=64"`
	Data            map[string]string `validate:"dive,keys,max=40,endkeys,max=500"`
}

// Dispatcher looks up the recipient's channel and submits a data-only,
// high-priority message to the push provider. Not idempotent: every call is
// a fresh message; collapsing duplicates is the client's tag-key job.
type Dispatcher struct {
	registrations Registrations
	provider      push.Provider
	validate      *validator.Validate
	log           zerolog.Logger
}

func New(registrations Registrations, provider push.Provider, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registrations: registrations,
		provider:      provider,
		validate:      validator.New(),
		log:           log,
	}
}

// Dispatch returns the backend message id, or an *Error carrying the
// taxonomy code. Recipient lookup failures are masked: the caller cannot
// tell an unknown user from a user who never enabled notifications.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (string, error) {
	if err := d.validateRequest(req); err != nil {
		return "", err
	}

	reg, err := d.registrations.GetRegistration(req.TargetUserEmail)
	if err != nil {
		return "", fmt.Errorf("dispatch: registration lookup: %w", err)
	}
	if reg == nil || reg.ChannelHandle == "" {
		d.log.Info().Str("source", string(req.Source)).Msg("dispatch target has no channel registration")
		return "", newError(notify.CodeRecipientNotRegistered, genericDeliveryFailure, nil)
	}

	messageID, err := d.provider.Submit(ctx, push.Message{
		Token:    reg.ChannelHandle,
		Data:     d.buildData(req),
		Priority: push.PriorityHigh,
	})
	if err != nil {
		if errors.Is(err, push.ErrChannelGone) {
			// dead channel: drop it so the next dispatch fails fast
			if delErr := d.registrations.DeleteRegistration(req.TargetUserEmail); delErr != nil {
				d.log.Error().Err(delErr).Msg("failed to drop expired registration")
			}
			return "", newError(notify.CodeRecipientNotRegistered, genericDeliveryFailure, err)
		}
		return "", fmt.Errorf("dispatch: submit: %w", err)
	}

	d.log.Info().
		Str("source", string(req.Source)).
		Str("messageId", messageID).
		Msg("notification dispatched")
	return messageID, nil
}

func (d *Dispatcher) validateRequest(req Request) error {
	if err := d.validate.Struct(req); err != nil {
		return newError(notify.CodeValidation, "invalid notification request", err)
	}
	if !req.Source.Valid() {
		return newError(notify.CodeValidation, "unknown notification source", nil)
	}
	for _, value := range []string{req.Title, req.Body} {
		if containsMarkup(value) {
			return newError(notify.CodeValidation, "title and body must not contain markup", nil)
		}
	}
	for _, value := range req.Data {
		if containsMarkup(value) {
			return newError(notify.CodeValidation, "data values must not contain markup", nil)
		}
	}
	return nil
}

// buildData assembles the data-only payload. Caller-supplied extras are
// merged first, so the reserved keys always win.
func (d *Dispatcher) buildData(req Request) map[string]string {
	data := make(map[string]string, len(req.Data)+5)
	for k, v := range req.Data {
		data[k] = v
	}
	data["title"] = req.Title
	data["body"] = req.Body
	data["type"] = string(req.Source)
	if req.EventID != "" {
		data["id"] = req.EventID
	}
	if _, ok := data["url"]; !ok {
		data["url"] = "/dashboard"
	}
	return data
}

// containsMarkup flags angle brackets and script-scheme fragments. The
// worker re-sanitizes on render; rejecting here keeps bad input out of the
// push pipeline entirely.
func containsMarkup(s string) bool {
	if strings.ContainsAny(s, "<>") {
		return true
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, "javascript:") || strings.Contains(lower, "data:text/html")
}
