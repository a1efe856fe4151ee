package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, loading an
// optional .env file first so both deployment styles work. Unset variables
// leave the current value alone; unparsable numeric values are ignored the
// same way.
func parseEnv(config *Config) {
	// Missing .env is the normal case in containerized deployments.
	_ = godotenv.Load()

	if v := os.Getenv("ADDRESS"); v != "" {
		config.EndpointAddrHTTP = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		config.JWTSecretKey = v
	}
	if v := os.Getenv("JWT_ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			config.AccessTokenValidityDuration = time.Duration(minutes) * time.Minute
		}
	}
	if v := os.Getenv("PAYLOAD_KEY"); v != "" {
		config.PayloadKey = v
	}
	if v := os.Getenv("NFC_TIMEOUT"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			config.NFCTimeout = time.Duration(seconds) * time.Second
		}
	}
	if v := os.Getenv("FORCE_NFC_SIMULATION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.ForceNFCSimulation = b
		}
	}
	if v := os.Getenv("CERT_DIR"); v != "" {
		config.CertDir = v
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		config.StaticDir = v
	}
	if v := os.Getenv("CLEANUP_INTERVAL_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			config.CleanupInterval = time.Duration(minutes) * time.Minute
		}
	}
	if v := os.Getenv("ADMIN_USERNAME"); v != "" {
		config.AdminUsername = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		config.AdminPassword = v
	}
	if v := os.Getenv("S3_ROOT_USER"); v != "" {
		config.S3RootUser = v
	}
	if v := os.Getenv("S3_ROOT_PASSWORD"); v != "" {
		config.S3RootPassword = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		config.S3Bucket = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		config.S3Region = v
	}
	if v := os.Getenv("S3_BASE_ENDPOINT"); v != "" {
		config.S3BaseEndpoint = v
	}
}
