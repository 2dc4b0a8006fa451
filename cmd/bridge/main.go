package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	httpadapter "myko-bridge/internal/adapters/input/http"
	"myko-bridge/internal/adapters/input/ssdp"
	"myko-bridge/internal/adapters/output/metrics"
	"myko-bridge/internal/adapters/output/myko"
	"myko-bridge/internal/adapters/output/persistence"
	"myko-bridge/internal/domain/model"
	"myko-bridge/internal/domain/service"
	"myko-bridge/internal/domain/translator"
)

const (
	defaultConfigPath = "/app/config.json"
	defaultHTTPAddr   = ":80"
	maxSetupBackoff   = 5 * time.Minute
)

func main() {
	setupLogging(debugFromEnv(os.Getenv))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	configService := service.NewConfigService(persistence.NewJSONConfigRepository(configPath))
	cfg, err := configService.Resolve(ctx, os.Getenv)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load config")
	}
	setupLogging(cfg.Debug)
	if !cfg.Configured() {
		log.Fatal().Msg("Myko credentials missing. Set MYKO_USERNAME and MYKO_PASSWORD or add them to the config file.")
	}

	ip := cfg.LocalIP
	if ip == "" {
		ip = getLocalIP()
	}
	if ip == "" {
		log.Fatal().Msg("Could not determine local IP. Set LOCAL_IP environment variable.")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMetrics := metrics.NewPrometheus(registry)

	profiles := append(append([]*model.CapabilityProfile{}, cfg.Profiles...), translator.DefaultProfiles...)
	factory, err := translator.NewFactory(profiles)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid capability profiles")
	}

	client := myko.NewClient(cfg.BaseURL, cfg.Username, cfg.Password, 0)
	bridge := service.NewBridgeService(client, factory, promMetrics, cfg.Debug)
	if err := setupWithRetry(ctx, bridge); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up Myko lights")
	}
	go bridge.Run(ctx, cfg.Interval())

	ssdpServer := ssdp.NewServer(ip, 80)
	go func() {
		if err := ssdpServer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("SSDP server error")
		}
	}()

	addr := cfg.HTTPAddr
	if addr == "" {
		addr = defaultHTTPAddr
	}
	api := httpadapter.NewServer(bridge, ip, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: api.Routes(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	log.Info().Str("ip", ip).Str("addr", addr).Msg("Myko bridge listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("HTTP server error")
	}
	log.Info().Msg("Shutdown complete")
}

// setupWithRetry retries setup while Myko is unreachable, doubling the wait
// each time. Other errors are returned at once.
func setupWithRetry(ctx context.Context, bridge *service.BridgeService) error {
	backoff := 5 * time.Second
	for {
		n, err := bridge.Setup(ctx)
		if err == nil {
			if n == 0 {
				log.Warn().Msg("No Myko lights found")
			}
			return nil
		}
		if !errors.Is(err, service.ErrNotReady) {
			return err
		}
		log.Warn().Err(err).Dur("retry_in", backoff).Msg("Myko not ready")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxSetupBackoff)
	}
}

// debugFromEnv reads MYKO_DEBUG the same way the config does. Unset or
// unparseable means off.
func debugFromEnv(getenv func(string) string) bool {
	debug, _ := strconv.ParseBool(getenv("MYKO_DEBUG"))
	return debug
}

func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return ""
}
