package config

import (
	"encoding/base64"
	"path/filepath"
	"testing"
)

// ── parseCorsOrigins ──

func TestParseCorsOrigins_Basic(t *testing.T) {
	got := parseCorsOrigins("https://example.com, https://other.com")
	if len(got) != 2 || got[0] != "https://example.com" || got[1] != "https://other.com" {
		t.Fatalf("got %v", got)
	}
}

func TestParseCorsOrigins_Wildcard(t *testing.T) {
	got := parseCorsOrigins("https://example.com, *")
	if len(got) != 1 || got[0] != "*" {
		t.Fatalf("wildcard should short-circuit, got %v", got)
	}
}

func TestParseCorsOrigins_StripsPath(t *testing.T) {
	got := parseCorsOrigins("https://example.com/path/to/resource")
	if len(got) != 1 || got[0] != "https://example.com" {
		t.Fatalf("should strip path, got %v", got)
	}
}

func TestParseCorsOrigins_SkipsEmpty(t *testing.T) {
	got := parseCorsOrigins("https://a.com, , https://b.com")
	if len(got) != 2 {
		t.Fatalf("should skip empty, got %v", got)
	}
}

func TestDeriveCorsOrigins_Valid(t *testing.T) {
	got := deriveCorsOrigins("https://example.com:3040")
	if len(got) != 1 || got[0] != "https://example.com:3040" {
		t.Fatalf("got %v", got)
	}
}

func TestDeriveCorsOrigins_Invalid(t *testing.T) {
	got := deriveCorsOrigins("not-a-url")
	if len(got) != 0 {
		t.Fatalf("invalid URL = %v", got)
	}
}

// ── VAPID keys ──

func TestGenerateVapidKeys(t *testing.T) {
	keys, err := generateVapidKeys()
	if err != nil {
		t.Fatalf("generateVapidKeys: %v", err)
	}

	pub, err := base64.RawURLEncoding.DecodeString(keys.PublicKey)
	if err != nil {
		t.Fatalf("public key not base64url: %v", err)
	}
	if len(pub) != 65 || pub[0] != 0x04 {
		t.Fatalf("public key should be 65-byte uncompressed point, got len=%d first=%#x", len(pub), pub[0])
	}

	priv, err := base64.RawURLEncoding.DecodeString(keys.PrivateKey)
	if err != nil {
		t.Fatalf("private key not base64url: %v", err)
	}
	if len(priv) != 32 {
		t.Fatalf("private key length = %d, want 32", len(priv))
	}
}

func TestLoadOrCreateVapidKeys_Persists(t *testing.T) {
	settingsFile := filepath.Join(t.TempDir(), "settings.json")

	first, err := LoadOrCreateVapidKeys(settingsFile)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := LoadOrCreateVapidKeys(settingsFile)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first.PublicKey != second.PublicKey || first.PrivateKey != second.PrivateKey {
		t.Fatal("keys should be stable across loads")
	}
}

func TestPad32_Short(t *testing.T) {
	got := pad32([]byte{1, 2, 3})
	if len(got) != 32 {
		t.Fatalf("len = %d", len(got))
	}
	if got[29] != 1 || got[30] != 2 || got[31] != 3 {
		t.Fatalf("padding wrong: %v", got)
	}
}

func TestPad32_Exact(t *testing.T) {
	input := make([]byte, 32)
	input[0] = 0xFF
	got := pad32(input)
	if len(got) != 32 || got[0] != 0xFF {
		t.Fatalf("exact 32 bytes should pass through, got len=%d", len(got))
	}
}

// ── Session secret ──

func TestLoadSessionSecret_CreatesAndReloads(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadSessionSecret(dir)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if len(first) != 32 {
		t.Fatalf("secret length = %d, want 32", len(first))
	}

	second, err := LoadSessionSecret(dir)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("secret should be stable across loads")
	}
}

func TestLoadSessionSecret_EnvOverride(t *testing.T) {
	secret := make([]byte, 32)
	for i := range secret {
		secret[i] = byte(i)
	}
	t.Setenv("PERMITHUB_SESSION_SECRET", base64.StdEncoding.EncodeToString(secret))

	got, err := LoadSessionSecret(t.TempDir())
	if err != nil {
		t.Fatalf("LoadSessionSecret: %v", err)
	}
	if string(got) != string(secret) {
		t.Fatal("env secret should win")
	}
}

func TestLoadSessionSecret_EnvBadLength(t *testing.T) {
	t.Setenv("PERMITHUB_SESSION_SECRET", base64.StdEncoding.EncodeToString([]byte("short")))
	if _, err := LoadSessionSecret(t.TempDir()); err == nil {
		t.Fatal("short env secret should be rejected")
	}
}

// ── Settings ──

func TestLoadServerSettings_Defaults(t *testing.T) {
	settingsFile := filepath.Join(t.TempDir(), "settings.json")
	settings, err := LoadServerSettings(settingsFile)
	if err != nil {
		t.Fatalf("LoadServerSettings: %v", err)
	}
	if settings.ListenHost != defaultListenHost {
		t.Fatalf("ListenHost = %q", settings.ListenHost)
	}
	if settings.ListenPort != defaultListenPort {
		t.Fatalf("ListenPort = %d", settings.ListenPort)
	}
	if settings.PublicURL == "" {
		t.Fatal("PublicURL should have a default")
	}
}

func TestLoadServerSettings_EnvOverride(t *testing.T) {
	t.Setenv("PERMITHUB_LISTEN_HOST", "0.0.0.0")
	t.Setenv("PERMITHUB_LISTEN_PORT", "4555")

	settingsFile := filepath.Join(t.TempDir(), "settings.json")
	settings, err := LoadServerSettings(settingsFile)
	if err != nil {
		t.Fatalf("LoadServerSettings: %v", err)
	}
	if settings.ListenHost != "0.0.0.0" || settings.ListenPort != 4555 {
		t.Fatalf("env override not applied: %+v", settings)
	}

	// values written back are picked up without the env on a later load
	reloaded, err := readSettings(settingsFile)
	if err != nil {
		t.Fatalf("readSettings: %v", err)
	}
	if reloaded.ListenPort == nil || *reloaded.ListenPort != 4555 {
		t.Fatal("env values should be persisted on first boot")
	}
}
