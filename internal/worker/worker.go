package worker

import (
	"github.com/rs/zerolog"

	"permithub/internal/notify"
)

// Worker consumes background push messages and manages the notification
// center. It is the counterpart of the in-page router: the page renders
// while visible, the worker renders the rest.
type Worker struct {
	center *Center
	log    zerolog.Logger
}

func New(center *Center, log zerolog.Logger) *Worker {
	return &Worker{center: center, log: log}
}

// HandleMessage renders and shows one inbound payload. Malformed and
// non-data payloads are dropped; the worker never fails the delivery.
func (w *Worker) HandleMessage(payload notify.Payload) bool {
	if err := payload.Validate(); err != nil {
		w.log.Warn().Err(err).Msg("dropping malformed background payload")
		return false
	}

	n, ok := Render(payload)
	if !ok {
		w.log.Debug().Msg("dropping payload without data block")
		return false
	}

	w.center.Show(n)
	w.log.Debug().Str("tag", n.Tag).Msg("notification shown")
	return true
}

// HandleClick resolves a notification click. It returns the in-app URL to
// open and whether to navigate at all; dismiss closes without navigating.
// A plain body click behaves like the view action.
func (w *Worker) HandleClick(action string, n Notification) (string, bool) {
	w.center.Close(n.Tag)

	if action == ActionDismiss {
		return "", false
	}
	return SafeTargetURL(n.TargetURL), true
}
