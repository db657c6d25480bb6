package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort         int           `json:"server_port"`
	JWTSecretKey       string        `json:"jwt_secret_key"`
	JWTExpirationHours int           `json:"jwt_expiration_hours"`
	GlobalRateLimit    int           `json:"global_rate_limit"`
	PresetDir          string        `json:"preset_dir"`
	MigrationsDir      string        `json:"migrations_dir"`
	AllowTenantBypass  bool          `json:"allow_tenant_bypass"`
	ResolverCacheTTL   time.Duration `json:"resolver_cache_ttl"`
	ArchiveAfter       time.Duration `json:"archive_after"`
	BaseDomain         string        `json:"base_domain"`
}

func Load() (*Config, error) {
	serverPort, _ := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if serverPort == 0 {
		serverPort = 8080
	}

	jwtExpirationHours, _ := strconv.Atoi(os.Getenv("JWT_EXPIRATION_HOURS"))
	if jwtExpirationHours == 0 {
		jwtExpirationHours = 24
	}

	globalRateLimit, _ := strconv.Atoi(os.Getenv("GLOBAL_RATE_LIMIT"))
	if globalRateLimit == 0 {
		globalRateLimit = 10000 // requests per minute per IP
	}

	// The resolver cache tolerates at most a minute of staleness after
	// tenant deactivation.
	resolverTTL := getEnvDurationWithDefault("RESOLVER_CACHE_TTL", 60*time.Second)
	if resolverTTL > 60*time.Second {
		resolverTTL = 60 * time.Second
	}

	archiveDays, _ := strconv.Atoi(os.Getenv("AUDIT_ARCHIVE_AFTER_DAYS"))
	if archiveDays == 0 {
		archiveDays = 365
	}

	return &Config{
		ServerPort:         serverPort,
		JWTSecretKey:       os.Getenv("JWT_SECRET_KEY"),
		JWTExpirationHours: jwtExpirationHours,
		GlobalRateLimit:    globalRateLimit,
		PresetDir:          getEnvWithDefault("PRESET_DIR", "presets"),
		MigrationsDir:      getEnvWithDefault("MIGRATIONS_DIR", "migrations"),
		AllowTenantBypass:  os.Getenv("ALLOW_TENANT_BYPASS") == "true",
		ResolverCacheTTL:   resolverTTL,
		ArchiveAfter:       time.Duration(archiveDays) * 24 * time.Hour,
		BaseDomain:         getEnvWithDefault("BASE_DOMAIN", "localhost"),
	}, nil
}
