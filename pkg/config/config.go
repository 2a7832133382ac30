package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Duration accepts Go duration strings ("30s", "15m") in yaml; bare
// integers are taken as nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}

	var n int64
	if err := unmarshal(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Server struct {
		Address         string   `yaml:"address"`
		ReadTimeout     Duration `yaml:"read_timeout"`
		WriteTimeout    Duration `yaml:"write_timeout"`
		ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Auth struct {
		JWTSecret       string   `yaml:"jwt_secret"`
		AccessTokenTTL  Duration `yaml:"access_token_ttl"`
		RefreshTokenTTL Duration `yaml:"refresh_token_ttl"`
	} `yaml:"auth"`

	Snapshot struct {
		Enabled  bool     `yaml:"enabled"`
		Backend  string   `yaml:"backend"` // "file" or "redis"
		Path     string   `yaml:"path"`
		Interval Duration `yaml:"interval"`
	} `yaml:"snapshot"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		JaegerURL  string  `yaml:"jaeger_url"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Email struct {
		Enabled  bool   `yaml:"enabled"`
		SMTPHost string `yaml:"smtp_host"`
		SMTPPort int    `yaml:"smtp_port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"email"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be > 0")
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("auth.refresh_token_ttl must be > 0")
	}

	if c.Snapshot.Enabled {
		switch c.Snapshot.Backend {
		case "file":
			if c.Snapshot.Path == "" {
				return fmt.Errorf("snapshot.path must not be empty for the file backend")
			}
		case "redis":
			if c.Redis.Address == "" {
				return fmt.Errorf("redis.address must not be empty for the redis snapshot backend")
			}
			if c.Redis.PoolSize <= 0 {
				return fmt.Errorf("redis.pool_size must be > 0 for the redis snapshot backend")
			}
		default:
			return fmt.Errorf("snapshot.backend must be \"file\" or \"redis\", got %q", c.Snapshot.Backend)
		}
		if c.Snapshot.Interval <= 0 {
			return fmt.Errorf("snapshot.interval must be > 0 when snapshots are enabled")
		}
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing is enabled")
		}
		if c.Tracing.SampleRate <= 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be in (0, 1]")
		}
	}

	if c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("email.smtp_host must not be empty when email is enabled")
		}
		if c.Email.SMTPPort <= 0 {
			return fmt.Errorf("email.smtp_port must be > 0 when email is enabled")
		}
		if c.Email.From == "" {
			return fmt.Errorf("email.from must not be empty when email is enabled")
		}
	}

	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from the given path, falling back to
// defaults when the file does not exist. Environment overrides are
// applied in both cases.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = Duration(30 * time.Second)
	cfg.Server.WriteTimeout = Duration(30 * time.Second)
	cfg.Server.ShutdownTimeout = Duration(30 * time.Second)

	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.AccessTokenTTL = Duration(15 * time.Minute)
	cfg.Auth.RefreshTokenTTL = Duration(7 * 24 * time.Hour)

	cfg.Snapshot.Enabled = true
	cfg.Snapshot.Backend = "file"
	cfg.Snapshot.Path = "data/snapshots"
	cfg.Snapshot.Interval = Duration(time.Minute)

	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Email.Enabled = false
	cfg.Email.SMTPPort = 587

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 50
	cfg.RateLimiting.Burst = 100

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("HUDDLE_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("HUDDLE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("HUDDLE_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if path := os.Getenv("HUDDLE_SNAPSHOT_PATH"); path != "" {
		c.Snapshot.Path = path
	}
	if addr := os.Getenv("HUDDLE_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
}
