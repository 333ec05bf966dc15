package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portbridge/config"
	"portbridge/internal/metrics"
	"portbridge/internal/status"
	"portbridge/logger"
	"portbridge/sdk"
	"portbridge/sdkerr"
)

type result struct {
	value []byte
	err   *sdkerr.SimpleError
}

func main() {
	log := logger.GetLogger()

	configPath := flag.String("config", "", "Path to a YAML or TOML configuration file (default: environment)")
	method := flag.String("method", "GET", "HTTP method")
	path := flag.String("path", "/v1/asset/account", "Request path")
	data := flag.String("data", "", "JSON request body")
	tail := flag.Bool("tail", false, "Subscribe to private trade pushes and print them until interrupted")
	statusAddr := flag.String("status-addr", "", "Serve metrics and status on this address (overrides metrics.status_address)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics.ReportInterval > 0 {
		logger.StartReport(ctx, log, cfg.Metrics.ReportInterval)
	}
	if cfg.Metrics.CloudWatch.Enabled {
		publisher, err := metrics.NewCloudWatchPublisher(ctx, cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace)
		if err != nil {
			log.WithError(err).Warn("cloudwatch publisher disabled")
		} else {
			publisher.Start(ctx, time.Minute)
		}
	}

	s := sdk.New(cfg.Runtime.Workers)
	if *statusAddr != "" {
		cfg.Metrics.StatusAddress = *statusAddr
	}
	if cfg.Metrics.StatusAddress != "" {
		srv := status.NewServer(cfg.Metrics.StatusAddress, s.Live, log)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.WithError(err).Warn("status server stopped")
			}
		}()
	}
	code := run(ctx, s, cfg, *configPath, request{Method: *method, Path: *path, Data: *data}, *tail)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := s.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown did not complete")
	}
	os.Exit(code)
}

type request struct {
	Method string
	Path   string
	Data   string
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv()
	}
	return config.LoadConfig(path)
}

func run(ctx context.Context, s *sdk.SDK, cfg *config.Config, configPath string, req request, tail bool) int {
	log := logger.GetLogger().WithComponent("main")

	h, serr := s.NewHTTPClient(cfg.Endpoints.HTTPURL, cfg.Credentials.AppKey, cfg.Credentials.AppSecret, cfg.Credentials.AccessToken)
	if serr != nil {
		log.WithError(serr).Error("failed to create http client")
		return 1
	}
	defer s.FreeHTTPClient(h)

	desc := sdk.RequestDescription{Method: req.Method, Path: req.Path}
	if req.Data != "" {
		desc.Data = json.RawMessage(req.Data)
	}
	doc, err := json.Marshal(desc)
	if err != nil {
		log.WithError(err).Error("invalid request")
		return 1
	}
	r, err := await(ctx, func(cb sdk.Callback) *sdkerr.SimpleError {
		return s.HTTPClientRequest(h, doc, cb)
	})
	if err != nil {
		log.WithError(err).Error("request failed")
		return 1
	}
	fmt.Println(string(r))

	if !tail {
		return 0
	}
	return tailPushes(ctx, s, configPath)
}

func tailPushes(ctx context.Context, s *sdk.SDK, configPath string) int {
	log := logger.GetLogger().WithComponent("main")

	var cfgHandle sdk.Handle
	var serr *sdkerr.SimpleError
	if configPath == "" {
		cfgHandle, serr = s.NewConfigFromEnv()
	} else {
		cfgHandle, serr = s.NewConfigFromFile(configPath)
	}
	if serr != nil {
		log.WithError(serr).Error("failed to load trade configuration")
		return 1
	}
	defer s.FreeConfig(cfgHandle)

	r, err := await(ctx, func(cb sdk.Callback) *sdkerr.SimpleError {
		return s.NewTradeContext(cfgHandle, cb)
	})
	if err != nil {
		log.WithError(err).Error("failed to connect trade context")
		return 1
	}
	var created struct {
		Handle sdk.Handle `json:"handle"`
	}
	if err := json.Unmarshal(r, &created); err != nil {
		log.WithError(err).Error("unexpected trade context result")
		return 1
	}
	defer s.FreeTradeContext(created.Handle)

	s.TradeContextSetOnPush(created.Handle, func(event []byte) {
		fmt.Println(string(event))
	})
	if _, err := await(ctx, func(cb sdk.Callback) *sdkerr.SimpleError {
		return s.TradeContextSubscribe(created.Handle, []string{"private"}, cb)
	}); err != nil {
		log.WithError(err).Error("subscribe failed")
		return 1
	}

	log.Info("tailing trade pushes")
	<-ctx.Done()
	log.Info("shutdown signal received")
	return 0
}

// await schedules an operation and blocks until its callback fires or ctx ends.
func await(ctx context.Context, schedule func(sdk.Callback) *sdkerr.SimpleError) ([]byte, error) {
	ch := make(chan result, 1)
	if serr := schedule(func(value []byte, err *sdkerr.SimpleError) {
		ch <- result{value: value, err: err}
	}); serr != nil {
		return nil, serr
	}
	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return r.value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
