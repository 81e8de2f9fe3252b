package push

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
)

// ChannelHandle is what hides behind the opaque delivery token stored per
// user: the push-service endpoint plus the client's encryption keys. Servers
// treat the encoded form as a blob; only this package looks inside.
type ChannelHandle struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// EncodeHandle serializes a handle into the opaque token form.
func EncodeHandle(h ChannelHandle) (string, error) {
	if err := h.validate(); err != nil {
		return "", err
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeHandle parses an opaque token back into its parts.
func DecodeHandle(token string) (ChannelHandle, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ChannelHandle{}, fmt.Errorf("%w: %v", ErrBadHandle, err)
	}
	var h ChannelHandle
	if err := json.Unmarshal(raw, &h); err != nil {
		return ChannelHandle{}, fmt.Errorf("%w: %v", ErrBadHandle, err)
	}
	if err := h.validate(); err != nil {
		return ChannelHandle{}, err
	}
	return h, nil
}

func (h ChannelHandle) validate() error {
	if h.Endpoint == "" || h.P256dh == "" || h.Auth == "" {
		return fmt.Errorf("%w: missing fields", ErrBadHandle)
	}
	parsed, err := url.Parse(h.Endpoint)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return fmt.Errorf("%w: endpoint must be an https URL", ErrBadHandle)
	}
	return nil
}
