package client

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"permithub/internal/notify"
)

// RegistrarState is the explicit registration lifecycle. Failed is sticky:
// only Retry, a deliberate user action, moves it back to Pending.
type RegistrarState string

const (
	StateUnregistered RegistrarState = "unregistered"
	StatePending      RegistrarState = "pending"
	StateRegistered   RegistrarState = "registered"
	StateFailed       RegistrarState = "failed"
)

// Registrar acquires a push channel handle and persists it to the server.
// It never returns an error to the caller: notification setup must not break
// the page, so failures degrade to an empty handle with the reason kept on
// the registrar for the UI to read.
type Registrar struct {
	platform Platform
	worker   Worker
	sink     RegistrationSink
	log      zerolog.Logger

	mu       sync.Mutex
	state    RegistrarState
	handle   string
	lastCode notify.ErrorCode
}

func NewRegistrar(platform Platform, worker Worker, sink RegistrationSink, log zerolog.Logger) *Registrar {
	return &Registrar{
		platform: platform,
		worker:   worker,
		sink:     sink,
		log:      log,
		state:    StateUnregistered,
	}
}

// Register runs the full registration flow and returns the channel handle,
// or "" when anything prevents registration. Repeat calls after success are
// cache hits on the instance; repeat calls after failure stay failed until
// Retry.
func (r *Registrar) Register(ctx context.Context, identity string, role string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateRegistered:
		return r.handle
	case StateFailed:
		r.log.Debug().Str("identity", identity).Msg("registration previously failed, waiting for retry")
		return ""
	case StatePending:
		return ""
	}

	return r.register(ctx, identity, role)
}

// Retry is the user-action path out of Failed. From any other state it
// behaves like Register.
func (r *Registrar) Retry(ctx context.Context, identity string, role string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRegistered {
		return r.handle
	}
	if r.state == StatePending {
		return ""
	}
	return r.register(ctx, identity, role)
}

// register runs with r.mu held.
func (r *Registrar) register(ctx context.Context, identity string, role string) string {
	r.state = StatePending
	r.lastCode = ""

	if !r.platform.Supported() {
		return r.fail(identity, notify.CodePlatformUnsupported, nil)
	}

	switch r.platform.Permission() {
	case PermissionGranted:
	case PermissionDenied:
		return r.fail(identity, notify.CodePermissionDenied, nil)
	default:
		return r.fail(identity, notify.CodePermissionDefault, nil)
	}

	if err := r.worker.Register(ctx); err != nil {
		return r.fail(identity, notify.CodeRegistrationFailed, err)
	}
	if err := r.worker.AwaitReady(ctx); err != nil {
		return r.fail(identity, notify.CodeRegistrationFailed, err)
	}

	vapidKey, err := r.sink.VapidPublicKey(ctx)
	if err != nil {
		return r.fail(identity, notify.CodeRegistrationFailed, err)
	}

	handle, err := r.worker.AcquireChannel(ctx, vapidKey)
	if err != nil || handle == "" {
		return r.fail(identity, notify.CodeRegistrationFailed, err)
	}

	if err := r.sink.SaveRegistration(ctx, handle, role); err != nil {
		return r.fail(identity, notify.CodeRegistrationFailed, err)
	}

	r.state = StateRegistered
	r.handle = handle
	r.log.Info().Str("identity", identity).Msg("push channel registered")
	return handle
}

func (r *Registrar) fail(identity string, code notify.ErrorCode, err error) string {
	r.state = StateFailed
	r.handle = ""
	r.lastCode = code
	r.log.Warn().
		Err(err).
		Str("identity", identity).
		Str("code", string(code)).
		Msg("push registration failed")
	return ""
}

func (r *Registrar) State() RegistrarState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastCode returns the taxonomy code of the most recent failure, or "" when
// none. The UI maps it to a user message via notify.UserMessage.
func (r *Registrar) LastCode() notify.ErrorCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastCode
}
