package client

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Tracker owns the permission banner lifecycle. A denied state is final from
// our side: the user has to flip it in browser settings, so the tracker never
// re-prompts and only offers a dismissible hint while the state is default.
type Tracker struct {
	platform Platform
	log      zerolog.Logger

	mu        sync.Mutex
	dismissed bool
}

func NewTracker(platform Platform, log zerolog.Logger) *Tracker {
	return &Tracker{platform: platform, log: log}
}

// Current reads the platform state; unsupported platforms read as denied.
func (t *Tracker) Current() PermissionState {
	if !t.platform.Supported() {
		return PermissionDenied
	}
	return t.platform.Permission()
}

// Request shows the native prompt only from the default state; granted and
// denied are returned as-is without prompting.
func (t *Tracker) Request(ctx context.Context) PermissionState {
	current := t.Current()
	if current != PermissionDefault {
		return current
	}

	state, err := t.platform.RequestPermission(ctx)
	if err != nil {
		t.log.Warn().Err(err).Msg("permission prompt failed")
		return PermissionDefault
	}
	if !state.Valid() {
		t.log.Warn().Str("state", string(state)).Msg("platform returned unknown permission state")
		return PermissionDefault
	}

	t.log.Info().Str("state", string(state)).Msg("permission prompt answered")
	return state
}

// ShowBanner reports whether the enable-notifications banner should render:
// only for a signed-in user, only while permission is still default, and
// never after the user dismissed it.
func (t *Tracker) ShowBanner(signedIn bool) bool {
	if !signedIn || !t.platform.Supported() {
		return false
	}
	t.mu.Lock()
	dismissed := t.dismissed
	t.mu.Unlock()
	if dismissed {
		return false
	}
	return t.platform.Permission() == PermissionDefault
}

func (t *Tracker) DismissBanner() {
	t.mu.Lock()
	t.dismissed = true
	t.mu.Unlock()
}
