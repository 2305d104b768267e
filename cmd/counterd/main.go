package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mnohosten/atomic32/pkg/auth"
	"github.com/mnohosten/atomic32/pkg/server"
)

// userFlag collects repeatable -user name:password:role specs
type userFlag []string

func (u *userFlag) String() string {
	return strings.Join(*u, ",")
}

func (u *userFlag) Set(value string) error {
	*u = append(*u, value)
	return nil
}

func main() {
	// Parse command-line flags
	host := flag.String("host", "localhost", "Server host address")
	port := flag.Int("port", 8080, "Server port")
	corsOrigin := flag.String("cors-origin", "*", "CORS allowed origin")
	enableTLS := flag.Bool("tls", false, "Enable TLS/SSL")
	tlsCert := flag.String("tls-cert", "", "Path to TLS certificate file")
	tlsKey := flag.String("tls-key", "", "Path to TLS private key file")
	tlsGen := flag.Bool("tls-gen", false, "Generate a self-signed certificate at -tls-cert/-tls-key when missing (development only)")
	enableGraphQL := flag.Bool("graphql", false, "Enable GraphQL API endpoint (/graphql) and GraphiQL playground (/graphiql)")
	disableWatch := flag.Bool("no-watch", false, "Disable the WebSocket counter watch endpoint")
	watchInterval := flag.Duration("watch-interval", time.Second, "Default snapshot poll interval for watchers")
	requireAuth := flag.Bool("auth", false, "Require bearer-token authentication on counter routes")

	var users userFlag
	flag.Var(&users, "user", "User as name:password:role (repeatable; roles: admin, writer, reader)")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Create server configuration
	config := server.DefaultConfig()
	config.Host = *host
	config.Port = *port
	config.AllowedOrigins = []string{*corsOrigin}
	config.EnableTLS = *enableTLS
	config.TLSCertFile = *tlsCert
	config.TLSKeyFile = *tlsKey
	config.EnableGraphQL = *enableGraphQL
	config.EnableWatch = !*disableWatch
	config.WatchInterval = *watchInterval
	config.RequireAuth = *requireAuth

	// Generate a development certificate when asked to and none exists
	if *enableTLS && *tlsGen && *tlsCert != "" && *tlsKey != "" {
		_, certErr := os.Stat(*tlsCert)
		_, keyErr := os.Stat(*tlsKey)
		if os.IsNotExist(certErr) || os.IsNotExist(keyErr) {
			logrus.WithFields(logrus.Fields{
				"cert": *tlsCert,
				"key":  *tlsKey,
			}).Info("generating self-signed certificate")
			if err := server.GenerateSelfSignedCert(*tlsCert, *tlsKey, *host); err != nil {
				logrus.Fatalf("Failed to generate certificate: %v", err)
			}
		}
	}

	// Create server
	srv, err := server.New(config)
	if err != nil {
		logrus.Fatalf("Failed to create server: %v", err)
	}

	// Provision users when authentication is enabled
	if *requireAuth {
		if err := provisionUsers(srv.GetAuthManager(), users); err != nil {
			logrus.Fatalf("Failed to provision users: %v", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"host":    *host,
		"port":    *port,
		"tls":     *enableTLS,
		"graphql": *enableGraphQL,
		"watch":   !*disableWatch,
		"auth":    *requireAuth,
	}).Info("counterd configured")

	// Start server (blocks until shutdown)
	if err := srv.Start(); err != nil {
		logrus.Fatalf("Server error: %v", err)
	}
}

// provisionUsers creates the configured users, falling back to a single
// admin account from the environment when no -user flags were given
func provisionUsers(manager *auth.Manager, specs []string) error {
	if len(specs) == 0 {
		password := os.Getenv("COUNTERD_ADMIN_PASSWORD")
		if password == "" {
			return fmt.Errorf("auth enabled but no -user flags given and COUNTERD_ADMIN_PASSWORD is unset")
		}
		logrus.Info("created admin user from COUNTERD_ADMIN_PASSWORD")
		return manager.CreateUser("admin", password, auth.RoleAdmin)
	}

	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) != 3 {
			return fmt.Errorf("invalid user spec %q, want name:password:role", spec)
		}
		role := auth.Role(parts[2])
		switch role {
		case auth.RoleAdmin, auth.RoleWriter, auth.RoleReader:
		default:
			return fmt.Errorf("unknown role %q for user %s", parts[2], parts[0])
		}
		if err := manager.CreateUser(parts[0], parts[1], role); err != nil {
			return fmt.Errorf("user %s: %w", parts[0], err)
		}
		logrus.WithFields(logrus.Fields{
			"user": parts[0],
			"role": parts[2],
		}).Info("created user")
	}
	return nil
}
