package server

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/licensedoc/internal/config"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8971
	// DefaultMaxBodyBytes limits bundle payloads to 8 MB.
	DefaultMaxBodyBytes int64 = 8 << 20
	// DefaultGenerateTimeout bounds one generation request.
	DefaultGenerateTimeout = time.Minute

	readHeaderTimeout = 10 * time.Second
	idleTimeout       = time.Minute
	// writeSlack is the time left for writing the document after generation.
	writeSlack = 30 * time.Second
)

// Settings is the listener and request budget of the document server.
// Zero fields take the defaults above; Port 0 binds an ephemeral port.
type Settings struct {
	Host            string
	Port            int
	MaxBodyBytes    int64
	GenerateTimeout time.Duration
}

// SettingsFromConfig reads the server section of the project config, which
// already carries LICENSEDOC_SERVER_* overrides.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return Settings{Port: DefaultPort}.withDefaults()
	}
	raw := cfg.Project.Server
	return Settings{
		Host:            raw.Host,
		Port:            raw.Port,
		MaxBodyBytes:    int64(raw.MaxBodyMB) << 20,
		GenerateTimeout: raw.GenerateTimeout,
	}.withDefaults()
}

func (s Settings) withDefaults() Settings {
	if s.Host = strings.TrimSpace(s.Host); s.Host == "" {
		s.Host = DefaultHost
	}
	if s.Port < 0 || s.Port > 65535 {
		s.Port = DefaultPort
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.GenerateTimeout <= 0 {
		s.GenerateTimeout = DefaultGenerateTimeout
	}
	return s
}

// writeTimeout covers reading the body, generating and writing the response.
func (s Settings) writeTimeout() time.Duration {
	return s.GenerateTimeout + writeSlack
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the HTTP base URL for the server.
func (s Settings) URL() string {
	return "http://" + s.Address()
}
