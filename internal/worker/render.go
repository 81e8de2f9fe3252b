package worker

import (
	"permithub/internal/notify"
)

const (
	maxTitleRunes = 100
	maxBodyRunes  = 200

	fallbackTitle = "Permission slip notice"
	fallbackBody  = "You have a new notification"
	fallbackIcon  = "/icons/icon-192x192.png"
	fallbackURL   = "/dashboard"
)

// Action identifiers on a rendered notification.
const (
	ActionView    = "view"
	ActionDismiss = "dismiss"
)

// Notification is one rendered OS notification. Tag is the collapse key:
// showing a second notification with the same tag replaces the first.
type Notification struct {
	Title              string
	Body               string
	Icon               string
	Badge              string
	Tag                string
	TargetURL          string
	RequireInteraction bool
	Actions            []string
}

// Render turns a data-only payload into a displayable notification. The
// worker only renders data messages; anything else returns false and is
// dropped.
func Render(payload notify.Payload) (Notification, bool) {
	if len(payload.Data) == 0 {
		return Notification{}, false
	}

	event := notify.Event{
		Title:     payload.Title(fallbackTitle),
		Body:      payload.Body(fallbackBody),
		Icon:      payload.Data["icon"],
		TargetURL: payload.Data["url"],
		ID:        payload.Data["id"],
		Source:    notify.SourceType(payload.Data["type"]),
	}

	icon := event.Icon
	if icon == "" {
		icon = fallbackIcon
	}

	return Notification{
		Title:              truncate(event.Title, maxTitleRunes),
		Body:               truncate(event.Body, maxBodyRunes),
		Icon:               icon,
		Badge:              fallbackIcon,
		Tag:                event.DedupKey(),
		TargetURL:          SafeTargetURL(event.TargetURL),
		RequireInteraction: true,
		Actions:            []string{ActionView, ActionDismiss},
	}, true
}

// SafeTargetURL restricts click targets to same-origin relative paths. A
// leading "//" is protocol-relative and would escape the origin, so it falls
// back along with absolute URLs and everything else.
func SafeTargetURL(raw string) string {
	if len(raw) < 1 || raw[0] != '/' {
		return fallbackURL
	}
	if len(raw) > 1 && raw[1] == '/' {
		return fallbackURL
	}
	return raw
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
