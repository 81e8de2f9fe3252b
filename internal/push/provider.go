package push

import (
	"context"
	"errors"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// Message is a data-only submission to the push backend. No notification
// block ever crosses this boundary: rendering is the client's job, which is
// what makes the tag-based de-duplication work.
type Message struct {
	Token    string
	Data     map[string]string
	Priority Priority
}

// Provider is the push backend boundary: submit returns the backend's
// message id or an error.
type Provider interface {
	Submit(ctx context.Context, msg Message) (string, error)
}

var (
	// ErrChannelGone means the push service reported the channel as expired
	// (HTTP 410); the registration behind the token should be dropped.
	ErrChannelGone = errors.New("push: channel gone")

	ErrBadHandle = errors.New("push: malformed channel handle")
)
