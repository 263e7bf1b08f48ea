package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// BackendConfig describes one app-server replica behind the load balancer
type BackendConfig struct {
	ID   string
	Host string
	Port int
}

// BaseURL returns the replica's HTTP origin
func (b BackendConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", b.Host, b.Port)
}

// Address returns host:port without a scheme
func (b BackendConfig) Address() string {
	return fmt.Sprintf("%s:%d", b.Host, b.Port)
}

// HealthURL returns the replica's health probe endpoint
func (b BackendConfig) HealthURL() string {
	return b.BaseURL() + "/health"
}

// LBConfig holds load balancer configuration
type LBConfig struct {
	Host                string
	Port                string
	Backends            []BackendConfig
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
	StickyCookieName    string
	StickyCookieMaxAge  int
	LBSecret            string
	RateLimitPerSecond  float64
	RateLimitBurst      int
	Environment         string
}

// LoadBalancer loads load balancer configuration from environment variables
func LoadBalancer() (*LBConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	backends, err := ParseBackends(getEnv("BACKEND_SERVERS", "127.0.0.1:8001,127.0.0.1:8002,127.0.0.1:8003"))
	if err != nil {
		return nil, err
	}

	interval, err := strconv.Atoi(getEnv("HEALTH_CHECK_INTERVAL", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEALTH_CHECK_INTERVAL: %w", err)
	}
	timeout, err := strconv.Atoi(getEnv("HEALTH_CHECK_TIMEOUT", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEALTH_CHECK_TIMEOUT: %w", err)
	}
	maxAge, err := strconv.Atoi(getEnv("STICKY_COOKIE_MAX_AGE", "86400"))
	if err != nil {
		return nil, fmt.Errorf("invalid STICKY_COOKIE_MAX_AGE: %w", err)
	}
	perSecond, err := strconv.ParseFloat(getEnv("RATE_LIMIT_PER_SECOND", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_SECOND: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST_SIZE", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST_SIZE: %w", err)
	}

	return &LBConfig{
		Host:                getEnv("HOST", "0.0.0.0"),
		Port:                getEnv("LB_PORT", "8080"),
		Backends:            backends,
		HealthCheckInterval: time.Duration(interval) * time.Second,
		HealthCheckTimeout:  time.Duration(timeout) * time.Second,
		StickyCookieName:    getEnv("STICKY_COOKIE_NAME", "lb_server_id"),
		StickyCookieMaxAge:  maxAge,
		LBSecret:            getEnv("LB_SECRET", "secret"),
		RateLimitPerSecond:  perSecond,
		RateLimitBurst:      burst,
		Environment:         getEnv("ENVIRONMENT", "development"),
	}, nil
}

// IsProduction returns true if running in production environment
func (c *LBConfig) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// ParseBackends parses a comma-separated list of replicas. Each entry is
// host:port or scheme://host:port; replica ids are assigned server-1..server-n
// in list order so ids stay stable across restarts with the same config.
func ParseBackends(raw string) ([]BackendConfig, error) {
	var backends []BackendConfig
	for i, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		// Strip an optional scheme; only plain HTTP backends are supported.
		entry = strings.TrimPrefix(entry, "http://")
		entry = strings.TrimPrefix(entry, "https://")

		host, portStr, ok := strings.Cut(entry, ":")
		if !ok || host == "" {
			return nil, fmt.Errorf("invalid backend server format: %q", entry)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid backend port in %q: %w", entry, err)
		}
		backends = append(backends, BackendConfig{
			ID:   fmt.Sprintf("server-%d", i+1),
			Host: host,
			Port: port,
		})
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("BACKEND_SERVERS is empty")
	}
	return backends, nil
}
