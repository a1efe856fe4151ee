package config

import (
	"flag"
	"os"
	"time"

	"github.com/Naimehossein77/gym-nfc/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-k string   pass payload encryption key (base64, 32 bytes)
//	-n int      NFC reader timeout, seconds
//	-f          force NFC simulation mode
//	-c string   certificate directory
//	-w string   static assets directory
//	-i int      expired token cleanup interval, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and converted to time.Duration.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-k", "-n", "-f", "-c", "-w", "-i",
		"-u", "-p", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.JWTSecretKey, "s", config.JWTSecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.PayloadKey, "k", config.PayloadKey, "pass payload encryption key")

	nfcTimeout := fs.Int("n", int(config.NFCTimeout.Seconds()), "nfc_timeout (in seconds)")
	fs.BoolVar(&config.ForceNFCSimulation, "f", config.ForceNFCSimulation, "force NFC simulation mode")

	fs.StringVar(&config.CertDir, "c", config.CertDir, "pass certificate directory")
	fs.StringVar(&config.StaticDir, "w", config.StaticDir, "static assets directory")

	cleanupInterval := fs.Int("i", int(config.CleanupInterval.Minutes()), "cleanup_interval (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.NFCTimeout = time.Duration(*nfcTimeout) * time.Second
	config.CleanupInterval = time.Duration(*cleanupInterval) * time.Minute
}
