package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storyreel/storyreel-agent/internal/api"
	"github.com/storyreel/storyreel-agent/internal/assets"
	"github.com/storyreel/storyreel-agent/internal/cloud"
	"github.com/storyreel/storyreel-agent/internal/config"
	"github.com/storyreel/storyreel-agent/internal/db"
	"github.com/storyreel/storyreel-agent/internal/export"
	"github.com/storyreel/storyreel-agent/internal/logging"
	"github.com/storyreel/storyreel-agent/internal/project"
	"github.com/storyreel/storyreel-agent/internal/render"
	"github.com/storyreel/storyreel-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.CacheDir(), 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting storyreel agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.Open(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	if voice := cfg.VoiceID(); voice != "" {
		if err := repo.SetConfig(context.Background(), "voice_id", voice); err != nil {
			logger.Warn("failed to store voice preference", "error", err)
		}
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                  STORYREEL AGENT v%-7s                 ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	var cloudClient cloud.Client
	if cfg.CloudBaseURL() != "" && cfg.CloudToken() != "" {
		cloudClient = cloud.NewHTTPClient(cfg.CloudBaseURL(), cfg.CloudToken(), logger)
		logger.Info("cloud enrichment enabled", "base_url", cfg.CloudBaseURL())
	} else {
		cloudClient = cloud.NewStubClient(logger)
		logger.Info("cloud enrichment disabled, jobs will produce placeholders")
	}

	projectSvc := project.NewService(repo, logger)
	defer projectSvc.Close()

	cache, err := assets.NewCache(cfg.CacheDir(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize media cache: %w", err)
	}
	mediaServer := assets.NewServer(cache, logger)

	var renderRunner render.Runner
	var doctor *render.CachedDoctor

	renderCfg := render.DefaultConfig(cfg.DataDir(), logger)
	renderCfg.BinaryPath = cfg.RenderBinary()
	renderCfg.DoctorTimeout = cfg.ProbeTimeout()
	renderCfg.RenderTimeout = cfg.RenderTimeout()

	rr, err := render.NewRunner(renderCfg)
	if err != nil {
		logger.Warn("renderer unavailable, rendering disabled", "error", err)
	} else {
		renderRunner = rr
		doctor = render.NewCachedDoctor(rr, logger)

		initCtx, initCancel := context.WithTimeout(context.Background(), renderCfg.DoctorTimeout)
		defer initCancel()
		if caps, err := doctor.Refresh(initCtx); err != nil {
			logger.Warn("initial renderer probe failed", "error", err)
		} else {
			logger.Info("renderer capabilities detected",
				"video", caps.HasVideo,
				"audio", caps.HasAudio,
				"captions", caps.HasCaptions,
				"deps", fmt.Sprintf("%d/%d", caps.Summary.Available, caps.Summary.Total),
			)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := project.NewRunner(projectSvc, repo, cloudClient, logger)
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		ProjectService: projectSvc,
		Repository:     repo,
		Runner:         runner,
		Media:          mediaServer,
		Cloud:          cloudClient,
		RenderRunner:   renderRunner,
		Doctor:         doctor,
		Exporter:       export.NewExporter(cache, logger),
		RenderFPS:      cfg.RenderFPS(),
		RenderWidth:    cfg.RenderWidth(),
		RenderHeight:   cfg.RenderHeight(),
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			ProjectService: projectSvc,
			Runner:         runner,
			Logger:         logger,
			OnOpenEditor: func() error {
				logger.Info("open editor requested from tray", "url", fmt.Sprintf("http://127.0.0.1:%d", cfg.Port()))
				return nil
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
