package config

import (
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type serverSettingsFile struct {
	ListenHost   *string    `json:"listenHost,omitempty"`
	ListenPort   *int       `json:"listenPort,omitempty"`
	PublicURL    *string    `json:"publicUrl,omitempty"`
	CorsOrigins  []string   `json:"corsOrigins,omitempty"`
	VapidSubject *string    `json:"vapidSubject,omitempty"`
	VapidKeys    *VapidKeys `json:"vapidKeys,omitempty"`
}

type ServerSettings struct {
	ListenHost   string
	ListenPort   int
	PublicURL    string
	CorsOrigins  []string
	VapidSubject string
}

// LoadServerSettings merges settings.json with environment overrides.
// Environment values win and are written back when the file had no value,
// so a first boot configured by env produces a complete settings file.
func LoadServerSettings(settingsFile string) (*ServerSettings, error) {
	rawSettings, err := readSettings(settingsFile)
	if err != nil {
		return nil, err
	}

	needsSave := false

	listenHost := defaultListenHost
	if env := os.Getenv("PERMITHUB_LISTEN_HOST"); env != "" {
		listenHost = env
		if rawSettings.ListenHost == nil {
			rawSettings.ListenHost = &env
			needsSave = true
		}
	} else if rawSettings.ListenHost != nil {
		listenHost = *rawSettings.ListenHost
	}

	listenPort := defaultListenPort
	if env := os.Getenv("PERMITHUB_LISTEN_PORT"); env != "" {
		parsed, err := parsePortEnv("PERMITHUB_LISTEN_PORT", defaultListenPort)
		if err != nil {
			return nil, err
		}
		listenPort = parsed
		if rawSettings.ListenPort == nil {
			rawSettings.ListenPort = &parsed
			needsSave = true
		}
	} else if rawSettings.ListenPort != nil {
		listenPort = *rawSettings.ListenPort
	}

	publicURL := "http://localhost:" + strconv.Itoa(listenPort)
	if env := os.Getenv("PERMITHUB_PUBLIC_URL"); env != "" {
		publicURL = env
		if rawSettings.PublicURL == nil {
			rawSettings.PublicURL = &env
			needsSave = true
		}
	} else if rawSettings.PublicURL != nil {
		publicURL = *rawSettings.PublicURL
	}

	corsOrigins := []string{}
	if env := os.Getenv("PERMITHUB_CORS_ORIGINS"); env != "" {
		corsOrigins = parseCorsOrigins(env)
		if rawSettings.CorsOrigins == nil {
			rawSettings.CorsOrigins = corsOrigins
			needsSave = true
		}
	} else if rawSettings.CorsOrigins != nil {
		corsOrigins = rawSettings.CorsOrigins
	} else {
		corsOrigins = deriveCorsOrigins(publicURL)
	}

	vapidSubject := "mailto:admin@permithub.local"
	if env := os.Getenv("PERMITHUB_VAPID_SUBJECT"); env != "" {
		vapidSubject = env
		if rawSettings.VapidSubject == nil {
			rawSettings.VapidSubject = &env
			needsSave = true
		}
	} else if rawSettings.VapidSubject != nil {
		vapidSubject = *rawSettings.VapidSubject
	}

	if needsSave {
		if err := writeSettings(settingsFile, rawSettings); err != nil {
			return nil, err
		}
	}

	return &ServerSettings{
		ListenHost:   listenHost,
		ListenPort:   listenPort,
		PublicURL:    publicURL,
		CorsOrigins:  corsOrigins,
		VapidSubject: vapidSubject,
	}, nil
}

func readSettings(path string) (*serverSettingsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &serverSettingsFile{}, nil
		}
		return nil, err
	}

	var settings serverSettingsFile
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func writeSettings(path string, settings *serverSettingsFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, payload, 0o600)
}

func parseCorsOrigins(raw string) []string {
	entries := strings.Split(raw, ",")
	origins := make([]string, 0, len(entries))
	for _, entry := range entries {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			return []string{"*"}
		}
		parsed, err := url.Parse(trimmed)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			origins = append(origins, trimmed)
			continue
		}
		origins = append(origins, parsed.Scheme+"://"+parsed.Host)
	}
	return origins
}

func deriveCorsOrigins(publicURL string) []string {
	parsed, err := url.Parse(publicURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return []string{}
	}
	return []string{parsed.Scheme + "://" + parsed.Host}
}
