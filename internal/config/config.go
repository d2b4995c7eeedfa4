package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultPath = "./config/config.yaml"

// Duration decodes human-friendly yaml values like "10s" or "24h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) D() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Server    Server    `yaml:"server"`
	Gateway   Gateway   `yaml:"gateway"`
	Session   Session   `yaml:"session"`
	Contact   Contact   `yaml:"contact"`
	RateLimit RateLimit `yaml:"rate_limit"`
	JSONRepo  JSONRepo  `yaml:"json_repo"`
	Log       Log       `yaml:"log"`
}

type Server struct {
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

type Gateway struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

type Session struct {
	Lifetime     Duration `yaml:"lifetime"`
	CookieSecure bool     `yaml:"cookie_secure"`
}

type Contact struct {
	SupportEmail   string `yaml:"support_email"`
	WhatsAppNumber string `yaml:"whatsapp_number"`
	SMTPAddr       string `yaml:"smtp_addr"`
	SMTPFrom       string `yaml:"smtp_from"`
}

type RateLimit struct {
	// Form submissions per minute per client.
	PerMinute int      `yaml:"per_minute"`
	Burst     int      `yaml:"burst"`
	Cleanup   Duration `yaml:"cleanup"`
}

type JSONRepo struct {
	Path string `yaml:"path"`
}

type Log struct {
	Development bool `yaml:"development"`
}

func New() (*Config, error) {
	return Load(defaultPath)
}

// Load reads the yaml config at path, falling back to defaults when the
// file is absent. PORT and GATEWAY_URL env vars win over the file.
func Load(path string) (*Config, error) {
	cfg := defaults()

	raw, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GATEWAY_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: Server{
			Port:    8123,
			BaseURL: "http://localhost:8123",
		},
		Gateway: Gateway{
			BaseURL: "http://localhost:3003/api",
			Timeout: Duration(10 * time.Second),
		},
		Session: Session{
			Lifetime: Duration(24 * time.Hour),
		},
		Contact: Contact{
			SupportEmail:   "support@localwire.example",
			WhatsAppNumber: "918072888085",
			SMTPAddr:       "localhost:25",
			SMTPFrom:       "no-reply@localwire.example",
		},
		RateLimit: RateLimit{
			PerMinute: 10,
			Burst:     5,
			Cleanup:   Duration(5 * time.Minute),
		},
		JSONRepo: JSONRepo{
			Path: "./data/messages.json",
		},
	}
}
