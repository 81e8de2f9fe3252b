package config

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type sessionSecretFile struct {
	SecretBase64 string `json:"secretBase64"`
}

// LoadSessionSecret resolves the HS256 secret shared with the identity
// provider. PERMITHUB_SESSION_SECRET (base64, 32 bytes) wins so deployments
// can point at the provider's key; otherwise a local secret is created under
// the data dir, which keeps single-box development working.
func LoadSessionSecret(dataDir string) ([]byte, error) {
	if env := os.Getenv("PERMITHUB_SESSION_SECRET"); env != "" {
		decoded, err := base64.StdEncoding.DecodeString(env)
		if err != nil {
			return nil, fmt.Errorf("PERMITHUB_SESSION_SECRET is not valid base64: %w", err)
		}
		if len(decoded) != 32 {
			return nil, errors.New("PERMITHUB_SESSION_SECRET must decode to 32 bytes")
		}
		return decoded, nil
	}

	secretFile := filepath.Join(dataDir, "session-secret.json")

	raw, err := os.ReadFile(secretFile)
	if err == nil {
		var parsed sessionSecretFile
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, err
		}
		decoded, err := base64.StdEncoding.DecodeString(parsed.SecretBase64)
		if err != nil {
			return nil, err
		}
		if len(decoded) != 32 {
			return nil, errors.New("invalid session secret length")
		}
		return decoded, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}

	payload := sessionSecretFile{SecretBase64: base64.StdEncoding.EncodeToString(secret)}
	encoded, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(secretFile), 0o700); err != nil {
		return nil, err
	}

	if err := os.WriteFile(secretFile, encoded, 0o600); err != nil {
		return nil, err
	}

	return secret, nil
}
