package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Ontology sources
	SlimFile      string
	OntologyFiles []string
	OntologyDir   string
	CachePath     string

	// Hot reload
	EnableHotReload bool
	WatchDebounceMS int

	// AWS configuration
	AWSRegion        string
	JobsTable        string
	EventsTable      string
	LocksTable       string
	EventBusName     string
	ResultsBucket    string
	ResultsKeyPrefix string
	MetricsNamespace string

	// Local artifact directory, used when no results bucket is configured
	ResultsDir string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// External tools
	ToolsConfigPath string

	// Upload staging for multipart association files
	UploadDir string

	// Query result caching
	QueryCacheTTLSeconds int

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		// Ontology sources
		SlimFile:      getEnv("SLIM_FILE", ""),
		OntologyFiles: getEnvList("ONTOLOGY_FILES", nil),
		OntologyDir:   getEnv("ONTOLOGY_DIR", ""),
		CachePath:     getEnv("GRAPH_CACHE_PATH", ""),

		// Hot reload
		EnableHotReload: getEnvBool("ENABLE_HOT_RELOAD", false),
		WatchDebounceMS: getEnvInt("WATCH_DEBOUNCE_MS", 2000),

		// AWS
		AWSRegion:        getEnv("AWS_REGION", "us-west-2"),
		JobsTable:        getEnv("JOBS_TABLE", "goslim-jobs"),
		EventsTable:      getEnv("EVENTS_TABLE", "goslim-job-events"),
		LocksTable:       getEnv("LOCKS_TABLE", "goslim-locks"),
		EventBusName:     getEnv("EVENT_BUS_NAME", "goslim-events"),
		ResultsBucket:    getEnv("RESULTS_BUCKET", ""),
		ResultsKeyPrefix: getEnv("RESULTS_KEY_PREFIX", "results"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "GoSlim"),
		ResultsDir:       getEnv("RESULTS_DIR", ""),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		// External tools
		ToolsConfigPath: getEnv("TOOLS_CONFIG_PATH", "configs/tools.yaml"),

		// Upload staging
		UploadDir: getEnv("UPLOAD_DIR", ""),

		// Query result caching
		QueryCacheTTLSeconds: getEnvInt("QUERY_CACHE_TTL_SECONDS", 300),

		// Authentication
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "goslim-api"),

		// Logging and features
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.SlimFile == "" {
		return fmt.Errorf("SLIM_FILE is required")
	}
	if len(c.OntologyFiles) == 0 && c.OntologyDir == "" {
		return fmt.Errorf("ONTOLOGY_FILES or ONTOLOGY_DIR is required")
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.ResultsBucket == "" {
			return fmt.Errorf("RESULTS_BUCKET is required in production")
		}
		if c.JobsTable == "" {
			return fmt.Errorf("JOBS_TABLE is required")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated environment variable, trimming blanks
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
