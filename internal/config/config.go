package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory    = "memory"
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"

	IdentityLocal    = "local"
	IdentityFirebase = "firebase"
)

// DefaultCourses are the programmes offered on the registration form.
var DefaultCourses = []string{"BSCS", "BSIT", "BSIS", "BSCE", "OTHER"}

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Store        StoreConfig        `yaml:"store"`
	Database     DatabaseConfig     `yaml:"database"`
	Firebase     FirebaseConfig     `yaml:"firebase"`
	Identity     IdentityConfig     `yaml:"identity"`
	JWT          JWTConfig          `yaml:"jwt"`
	SendGrid     SendGridConfig     `yaml:"sendgrid"`
	Log          LogConfig          `yaml:"log"`
	Registration RegistrationConfig `yaml:"registration"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
}

// ServerConfig contains the HTTP API and gRPC health listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
	// Per client IP limit on the sign-up and sign-in routes
	AuthRatePerSecond float64 `yaml:"auth_rate_per_second"`
	AuthRateBurst     int     `yaml:"auth_rate_burst"`
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Type string `yaml:"type"` // "memory", "postgres" or "firestore"
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// FirebaseConfig contains Firebase project settings
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	APIKey          string `yaml:"api_key"` // web API key, needed for password sign-in
}

// IdentityConfig selects who checks passwords
type IdentityConfig struct {
	Provider string `yaml:"provider"` // "local" or "firebase"
}

// JWTConfig contains session token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
}

// SendGridConfig contains email delivery settings. An empty API key logs emails
// instead of sending them.
type SendGridConfig struct {
	APIKey   string `yaml:"api_key"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// RegistrationConfig contains student registration rules
type RegistrationConfig struct {
	Courses         []string `yaml:"courses"`
	AllowAdminSetup bool     `yaml:"allow_admin_setup"`
	// StrictTransitions forbids direct approved <-> rejected decisions.
	StrictTransitions bool `yaml:"strict_transitions"`
}

// SchedulerConfig contains cron schedule settings (with seconds)
type SchedulerConfig struct {
	PendingDigest         string `yaml:"pending_digest"`
	BackfillRegistrations string `yaml:"backfill_registrations"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.GRPCPort)
	}

	// Store
	if val := os.Getenv("STORE_TYPE"); val != "" {
		c.Store.Type = val
	}

	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Firebase
	if val := os.Getenv("FIREBASE_PROJECT_ID"); val != "" {
		c.Firebase.ProjectID = val
	}
	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		c.Firebase.CredentialsFile = val
	}
	if val := os.Getenv("FIREBASE_API_KEY"); val != "" {
		c.Firebase.APIKey = val
	}

	// Identity
	if val := os.Getenv("IDENTITY_PROVIDER"); val != "" {
		c.Identity.Provider = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("SENDGRID_FROM"); val != "" {
		c.SendGrid.From = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = c.Server.Port + 1
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 || c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}
	if c.Server.AuthRatePerSecond <= 0 {
		c.Server.AuthRatePerSecond = 1
	}
	if c.Server.AuthRateBurst <= 0 {
		c.Server.AuthRateBurst = 5
	}

	// Store validation
	c.Store.Type = strings.ToLower(c.Store.Type)
	if c.Store.Type == "" {
		c.Store.Type = StoreMemory
	}
	switch c.Store.Type {
	case StoreMemory:
	case StorePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case StoreFirestore:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase project id is required for the firestore store")
		}
	default:
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}

	// Identity validation
	c.Identity.Provider = strings.ToLower(c.Identity.Provider)
	if c.Identity.Provider == "" {
		if c.Store.Type == StoreFirestore {
			c.Identity.Provider = IdentityFirebase
		} else {
			c.Identity.Provider = IdentityLocal
		}
	}
	switch c.Identity.Provider {
	case IdentityLocal:
		if c.Store.Type == StoreFirestore {
			return fmt.Errorf("local identity needs the memory or postgres store")
		}
	case IdentityFirebase:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase project id is required for firebase identity")
		}
		if c.Firebase.APIKey == "" {
			return fmt.Errorf("firebase api key is required for firebase identity")
		}
	default:
		return fmt.Errorf("unsupported identity provider: %s", c.Identity.Provider)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.SessionTTLMinutes == 0 {
		c.JWT.SessionTTLMinutes = 12 * 60
	}

	// SendGrid validation
	if c.SendGrid.APIKey != "" && c.SendGrid.From == "" {
		return fmt.Errorf("sendgrid sender address is required when an api key is set")
	}
	if c.SendGrid.FromName == "" {
		c.SendGrid.FromName = "EcoDefill"
	}

	// Registration defaults
	if len(c.Registration.Courses) == 0 {
		c.Registration.Courses = append([]string(nil), DefaultCourses...)
	}

	// Scheduler defaults
	if c.Scheduler.PendingDigest == "" {
		c.Scheduler.PendingDigest = "0 0 8 * * *" // 8 AM UTC
	}
	if c.Scheduler.BackfillRegistrations == "" {
		c.Scheduler.BackfillRegistrations = "0 30 2 * * *" // 2:30 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP API address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health listener address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

// HasCourse reports whether course is one of the configured programmes
func (c *Config) HasCourse(course string) bool {
	for _, known := range c.Registration.Courses {
		if known == course {
			return true
		}
	}
	return false
}
