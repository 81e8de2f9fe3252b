package dispatch

import (
	"context"
	"strings"
	"testing"

	"permithub/internal/logging"
	"permithub/internal/notify"
	"permithub/internal/push"
	"permithub/internal/store"
)

type fakeRegistrations struct {
	rows    map[string]*store.Registration
	deleted []string
}

func (f *fakeRegistrations) GetRegistration(userEmail string) (*store.Registration, error) {
	return f.rows[userEmail], nil
}

func (f *fakeRegistrations) DeleteRegistration(userEmail string) error {
	delete(f.rows, userEmail)
	f.deleted = append(f.deleted, userEmail)
	return nil
}

type fakeProvider struct {
	submitted []push.Message
	messageID string
	err       error
}

func (f *fakeProvider) Submit(ctx context.Context, msg push.Message) (string, error) {
	f.submitted = append(f.submitted, msg)
	if f.err != nil {
		return "", f.err
	}
	return f.messageID, nil
}

func newTestDispatcher(regs *fakeRegistrations, provider *fakeProvider) *Dispatcher {
	return New(regs, provider, logging.Nop())
}

func validRequest() Request {
	return Request{
		TargetUserEmail: "a@b.com",
		Title:           "Approved",
		Body:            "Your slip is approved",
		Source:          notify.SourceSlipApproved,
		EventID:         "42",
	}
}

// ── Happy path ──

func TestDispatch_Success(t *testing.T) {
	regs := &fakeRegistrations{rows: map[string]*store.Registration{
		"a@b.com": {UserEmail: "a@b.com", ChannelHandle: "H1", Role: "student"},
	}}
	provider := &fakeProvider{messageID: "M1"}
	d := newTestDispatcher(regs, provider)

	id, err := d.Dispatch(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if id != "M1" {
		t.Fatalf("messageID = %q, want M1", id)
	}

	if len(provider.submitted) != 1 {
		t.Fatalf("submitted %d messages", len(provider.submitted))
	}
	msg := provider.submitted[0]
	if msg.Token != "H1" {
		t.Fatalf("token = %q, want H1", msg.Token)
	}
	if msg.Priority != push.PriorityHigh {
		t.Fatalf("priority = %q, want high", msg.Priority)
	}
	if msg.Data["title"] != "Approved" || msg.Data["body"] != "Your slip is approved" {
		t.Fatalf("data = %v", msg.Data)
	}
	if msg.Data["id"] != "42" {
		t.Fatalf("data.id = %q", msg.Data["id"])
	}
	if msg.Data["type"] != string(notify.SourceSlipApproved) {
		t.Fatalf("data.type = %q", msg.Data["type"])
	}
	if msg.Data["url"] != "/dashboard" {
		t.Fatalf("data.url = %q", msg.Data["url"])
	}
}

func TestDispatch_ReservedKeysWinOverExtras(t *testing.T) {
	regs := &fakeRegistrations{rows: map[string]*store.Registration{
		"a@b.com": {ChannelHandle: "H1"},
	}}
	provider := &fakeProvider{messageID: "M1"}
	d := newTestDispatcher(regs, provider)

	req := validRequest()
	req.Data = map[string]string{"title": "spoofed", "url": "/slips/42", "extra": "kept"}
	if _, err := d.Dispatch(context.Background(), req); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	data := provider.submitted[0].Data
	if data["title"] != "Approved" {
		t.Fatalf("reserved title overridden: %q", data["title"])
	}
	if data["url"] != "/slips/42" {
		t.Fatalf("caller url should be kept: %q", data["url"])
	}
	if data["extra"] != "kept" {
		t.Fatalf("extra dropped: %v", data)
	}
}

// ── Masked recipient lookup ──

func TestDispatch_UnregisteredRecipientIsMasked(t *testing.T) {
	regs := &fakeRegistrations{rows: map[string]*store.Registration{
		// exists but never registered a channel
		"empty@b.com": {UserEmail: "empty@b.com", ChannelHandle: ""},
	}}
	provider := &fakeProvider{messageID: "M1"}
	d := newTestDispatcher(regs, provider)

	publicMessages := map[string]string{}
	for _, target := range []string{"missing@b.com", "empty@b.com"} {
		req := validRequest()
		req.TargetUserEmail = target
		_, err := d.Dispatch(context.Background(), req)
		if err == nil {
			t.Fatalf("target %s should fail", target)
		}
		de, ok := AsError(err)
		if !ok {
			t.Fatalf("target %s: not a dispatch.Error: %v", target, err)
		}
		if de.Code != notify.CodeRecipientNotRegistered {
			t.Fatalf("target %s: code = %s", target, de.Code)
		}
		publicMessages[target] = de.Public
	}

	// identical public shape: no identity enumeration
	if publicMessages["missing@b.com"] != publicMessages["empty@b.com"] {
		t.Fatalf("public messages must not distinguish cases: %v", publicMessages)
	}
	if strings.Contains(publicMessages["missing@b.com"], "@") {
		t.Fatal("public message must not echo the target identity")
	}
	if len(provider.submitted) != 0 {
		t.Fatal("nothing should reach the backend")
	}
}

// ── Validation ──

func TestDispatch_RejectsScriptTags(t *testing.T) {
	d := newTestDispatcher(&fakeRegistrations{rows: map[string]*store.Registration{
		"a@b.com": {ChannelHandle: "H1"},
	}}, &fakeProvider{messageID: "M1"})

	req := validRequest()
	req.Title = "hello <script>alert(1)</script>"
	_, err := d.Dispatch(context.Background(), req)
	de, ok := AsError(err)
	if !ok || de.Code != notify.CodeValidation {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestDispatch_RejectsScriptScheme(t *testing.T) {
	d := newTestDispatcher(&fakeRegistrations{rows: map[string]*store.Registration{
		"a@b.com": {ChannelHandle: "H1"},
	}}, &fakeProvider{})

	req := validRequest()
	req.Data = map[string]string{"url": "JavaScript:alert(1)"}
	_, err := d.Dispatch(context.Background(), req)
	de, ok := AsError(err)
	if !ok || de.Code != notify.CodeValidation {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestDispatch_ValidationFailures(t *testing.T) {
	d := newTestDispatcher(&fakeRegistrations{rows: map[string]*store.Registration{}}, &fakeProvider{})

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing target", func(r *Request) { r.TargetUserEmail = "" }},
		{"not an email", func(r *Request) { r.TargetUserEmail = "not-an-email" }},
		{"missing title", func(r *Request) { r.Title = "" }},
		{"missing body", func(r *Request) { r.Body = "" }},
		{"oversized title", func(r *Request) { r.Title = strings.Repeat("x", 101) }},
		{"oversized body", func(r *Request) { r.Body = strings.Repeat("x", 501) }},
		{"unknown source", func(r *Request) { r.Source = "permission-deleted" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := d.Dispatch(context.Background(), req)
			de, ok := AsError(err)
			if !ok || de.Code != notify.CodeValidation {
				t.Fatalf("want ValidationError, got %v", err)
			}
		})
	}
}

// ── Expired channel ──

func TestDispatch_GoneChannelDropsRegistration(t *testing.T) {
	regs := &fakeRegistrations{rows: map[string]*store.Registration{
		"a@b.com": {UserEmail: "a@b.com", ChannelHandle: "H1"},
	}}
	provider := &fakeProvider{err: push.ErrChannelGone}
	d := newTestDispatcher(regs, provider)

	_, err := d.Dispatch(context.Background(), validRequest())
	de, ok := AsError(err)
	if !ok || de.Code != notify.CodeRecipientNotRegistered {
		t.Fatalf("want masked failure, got %v", err)
	}
	if len(regs.deleted) != 1 || regs.deleted[0] != "a@b.com" {
		t.Fatalf("registration should be dropped, deleted=%v", regs.deleted)
	}
}
