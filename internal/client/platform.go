// Package client models the in-page notification lifecycle: permission
// tracking, channel registration, and foreground message routing. The
// browser surfaces are behind small interfaces so hosts plug in their own
// bindings and tests use fakes.
package client

import "context"

// PermissionState is the tri-state notification permission.
type PermissionState string

const (
	PermissionDefault PermissionState = "default"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

func (s PermissionState) Valid() bool {
	switch s {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return true
	}
	return false
}

// Platform is the host's notification capability surface.
type Platform interface {
	// Supported reports whether push notifications work here at all.
	Supported() bool
	// Permission reads the current state without prompting.
	Permission() PermissionState
	// RequestPermission shows the native prompt and returns the resulting
	// state. Implementations must not prompt when already granted or denied.
	RequestPermission(ctx context.Context) (PermissionState, error)
}

// Worker is the host's background delivery worker surface.
type Worker interface {
	// Register installs the worker. Safe to call when already installed.
	Register(ctx context.Context) error
	// AwaitReady blocks until the worker is active or ctx is done.
	AwaitReady(ctx context.Context) error
	// AcquireChannel mints the push channel handle using the server's
	// application key.
	AcquireChannel(ctx context.Context, vapidPublicKey string) (string, error)
}

// RegistrationSink persists channel registrations; implemented by the HTTP
// API client against the dispatch server.
type RegistrationSink interface {
	VapidPublicKey(ctx context.Context) (string, error)
	SaveRegistration(ctx context.Context, channelHandle string, role string) error
}
