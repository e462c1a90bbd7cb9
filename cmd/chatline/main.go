package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"chatline/internal/retention"
	"chatline/pkg/api"
	"chatline/pkg/auth"
	"chatline/pkg/banner"
	"chatline/pkg/config"
	"chatline/pkg/logger"
	"chatline/pkg/media"
	"chatline/pkg/pipeline"
	"chatline/pkg/presence"
	"chatline/pkg/security"
	"chatline/pkg/shutdown"
	"chatline/pkg/socket"
	"chatline/pkg/state"
	"chatline/pkg/store"
)

func main() {
	// build metadata - set via ldflags during build/release
	var (
		version   = "dev"
		commit    = "none"
		buildDate = "unknown"
	)
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	// Resolve config path (file flag wins over env)
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	// Load effective config (file + env)
	cfg, backendKeys, signingKeys, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Flags win over config/env when provided by the user.
	var addr string
	var dbPath string
	if !setFlags["addr"] {
		addr = cfg.Addr()
	} else {
		addr = addrVal
	}
	if !setFlags["db"] {
		if p := cfg.Server.DBPath; p != "" {
			dbPath = p
		} else {
			dbPath = dbVal
		}
	} else {
		dbPath = dbVal
	}

	logger.InitWithLevel(cfg.Logging.Level)

	if err := state.EnsureStateDirs(dbPath); err != nil {
		log.Fatalf("invalid data dir %s: %v", dbPath, err)
	}
	if err := store.Open(filepath.Join(dbPath, "store")); err != nil {
		shutdown.Abort("failed to open message ledger", err, dbPath)
	}
	if _, err := store.SeedDemoUsersIfNeeded(); err != nil {
		log.Fatalf("failed to seed demo users: %v", err)
	}

	// Attachment gateway client with per-kind size ceilings.
	limits, err := cfg.Media.SizeLimits()
	if err != nil {
		log.Fatalf("invalid media size limits: %v", err)
	}
	mediaClient := media.NewClient(cfg.Media.Endpoint, cfg.Media.Timeout(), limits)

	registry := presence.NewRegistry()
	pipe := pipeline.New(mediaClient, registry)

	// Populate the global runtime config with backend and signing keys.
	runtimeCfg := &config.RuntimeConfig{BackendKeys: map[string]struct{}{}, SigningKeys: map[string]struct{}{}}
	for k := range backendKeys {
		runtimeCfg.BackendKeys[k] = struct{}{}
	}
	for k := range signingKeys {
		runtimeCfg.SigningKeys[k] = struct{}{}
	}
	config.SetRuntime(runtimeCfg)

	// Retention sweeper (no-op unless enabled in config)
	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	if _, err := retention.Start(ctx, cfg.Retention); err != nil {
		log.Fatalf("failed to start retention: %v", err)
	}
	go func() {
		<-ctx.Done()
		cancel()
		_ = store.Close()
		os.Exit(0)
	}()

	// Determine config sources summary (flags/env/config)
	srcs := []string{}
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	if _, err := config.Load(cfgPath); err == nil {
		srcs = append(srcs, "config")
	}
	verStr := version
	if commit != "none" {
		verStr = verStr + " (" + commit + ")"
	}
	if buildDate != "unknown" {
		verStr = verStr + " @ " + buildDate
	}
	banner.Print(cfg, addr, dbPath, strings.Join(srcs, ", "), verStr)

	mux := http.NewServeMux()

	// Liveness probe used by deployment systems and CI
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{\"status\":\"ok\"}"))
	})

	// Realtime delivery channel
	mux.Handle("/ws", socket.Handler(registry, auth.VerifySignature))

	// API handler (catch-all under /)
	mux.Handle("/", api.Handler(pipe))

	// Serve Swagger UI at /docs and the OpenAPI spec at /openapi.yaml
	mux.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	mux.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))
	mux.Handle("/metrics", promhttp.Handler())

	// Build security middleware from config/env
	secCfg := security.SecConfig{
		BackendKeys:  map[string]struct{}{},
		FrontendKeys: map[string]struct{}{},
		AdminKeys:    map[string]struct{}{},
	}
	secCfg.AllowedOrigins = append(secCfg.AllowedOrigins, cfg.Security.CORS.AllowedOrigins...)
	if cfg.Security.RateLimit.RPS > 0 {
		secCfg.RPS = cfg.Security.RateLimit.RPS
	}
	if cfg.Security.RateLimit.Burst > 0 {
		secCfg.Burst = cfg.Security.RateLimit.Burst
	}
	if len(cfg.Security.IPWhitelist) > 0 {
		secCfg.IPWhitelist = append(secCfg.IPWhitelist, cfg.Security.IPWhitelist...)
	}
	for k := range config.GetBackendKeys() {
		secCfg.BackendKeys[k] = struct{}{}
	}
	for _, k := range cfg.Security.APIKeys.Frontend {
		secCfg.FrontendKeys[k] = struct{}{}
	}
	for _, k := range cfg.Security.APIKeys.Admin {
		secCfg.AdminKeys[k] = struct{}{}
	}

	wrapped := security.AuthenticateRequestMiddleware(secCfg)(mux)

	// TLS support: use values from effective cfg
	cert := cfg.Server.TLS.CertFile
	key := cfg.Server.TLS.KeyFile
	var errServe error
	if cert != "" && key != "" {
		errServe = http.ListenAndServeTLS(addr, cert, key, wrapped)
	} else {
		errServe = http.ListenAndServe(addr, wrapped)
	}
	if errServe != nil {
		log.Fatal(errServe)
	}
}
