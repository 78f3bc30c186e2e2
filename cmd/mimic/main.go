package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"github.com/ayusman/mimic/internal/app"
	"github.com/ayusman/mimic/internal/capture"
	"github.com/ayusman/mimic/internal/config"
	"github.com/ayusman/mimic/internal/detector"
	"github.com/ayusman/mimic/internal/logger"
	"github.com/ayusman/mimic/internal/notify"
	"github.com/ayusman/mimic/internal/overlay"
	"github.com/ayusman/mimic/internal/server"
	"github.com/ayusman/mimic/internal/store"
	"github.com/ayusman/mimic/internal/tracker"
	"github.com/ayusman/mimic/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to mimic.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "mimic: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer logger.Sync(log)

	log.Info("Monkey Mimic - hand gesture overlay")

	table, err := loadAssets(cfg.Overlay, log)
	if err != nil {
		return err
	}

	dbPath, err := cfg.StorePath()
	if err != nil {
		return err
	}
	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	publisher := notify.New(notify.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Channel:  cfg.Redis.Channel,
	}, log)
	defer publisher.Close()

	cameraID, err := chooseCamera(cfg.Camera.Device, st, log)
	if err != nil {
		return err
	}

	frames := server.NewFrameHub()
	events := server.NewEventHub(log)

	application, err := app.New(app.Config{
		Camera: capture.NewCamera(capture.Options{
			DeviceID: cameraID,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
		}),
		Detector:    newDetector(cfg.Detector, log),
		Tracker:     tracker.New(table, overlay.Placement{Right: cfg.Overlay.OffsetRight, Top: cfg.Overlay.OffsetTop}, cfg.Detector.MaxHands),
		Store:       st,
		Publisher:   publisher,
		Frames:      frames,
		Events:      events,
		CameraID:    cameraID,
		Mirror:      cfg.Camera.Mirror,
		Annotate:    true,
		WindowTitle: cfg.Display.Title,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Enabled {
		webDir := findWebDir()
		if webDir != "" {
			log.Info("serving static files", zap.String("dir", webDir))
		}

		srv := server.New(server.Config{
			StaticDir: webDir,
			Store:     st,
			Assets:    table,
			Detection: application,
			Frames:    frames,
			Events:    events,
			Logger:    log,
		})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				log.Error("http server failed", zap.Error(err))
			}
		}()
	}

	switch {
	case cfg.Tray.Enabled:
		return runTray(ctx, stop, application, streamURL(cfg.Server), log)
	case cfg.Display.Enabled:
		return application.Run(ctx)
	default:
		if err := application.Start(); err != nil {
			return err
		}
		<-ctx.Done()
		application.Stop()
		return nil
	}
}

// loadAssets builds the overlay table from the asset directory, creating the
// directory when it is missing so the user knows where images go.
func loadAssets(cfg config.OverlayConfig, log *zap.Logger) (*overlay.Table, error) {
	files := overlay.DefaultFiles()

	if _, err := os.Stat(cfg.AssetDir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(cfg.AssetDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create asset directory: %w", err)
		}

		names := make([]string, 0, len(files))
		for _, name := range files {
			names = append(names, name)
		}
		sort.Strings(names)
		log.Warn("created empty asset directory, add overlay images to it",
			zap.String("dir", cfg.AssetDir),
			zap.Strings("expected", names),
		)
	}

	table := overlay.LoadTable(os.DirFS(cfg.AssetDir), files, image.Pt(cfg.Width, cfg.Height), log)
	if table.Len() == 0 {
		log.Warn("no overlay images loaded, frames will be shown without overlays", zap.String("dir", cfg.AssetDir))
	}
	return table, nil
}

// newDetector prefers the MediaPipe service and falls back to a detector that
// never sees a hand.
func newDetector(cfg config.DetectorConfig, log *zap.Logger) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:         cfg.MaxHands,
		MinDetectionConf: cfg.MinDetectionConfidence,
		MinTrackingConf:  cfg.MinTrackingConfidence,
		Script:           cfg.Script,
		Python:           cfg.Python,
	}, log)
	if err != nil {
		log.Warn("MediaPipe not available, using mock detector", zap.Error(err))
		return detector.NewMockDetector()
	}

	log.Info("using MediaPipe hand detection")
	return mp
}

// chooseCamera resolves the device to open: the configured one, the one used
// last time if it still opens, or one picked interactively.
func chooseCamera(device int, st *store.Store, log *zap.Logger) (int, error) {
	if device >= 0 {
		return device, nil
	}

	settings := st.Settings()
	if id, ok := settings.LastCamera(); ok && capture.ProbeDevice(id) {
		log.Info("using remembered camera", zap.Int("camera", id))
		return id, nil
	}

	devices := capture.ListDevices(capture.MaxProbedDevices, capture.ProbeDevice)
	log.Info("cameras found", zap.Ints("devices", devices))

	id, err := capture.SelectDevice(devices, os.Stdin, os.Stdout)
	if err != nil {
		return 0, err
	}

	if err := settings.SetLastCamera(id); err != nil {
		log.Warn("failed to remember camera", zap.Error(err))
	}
	return id, nil
}

func runTray(ctx context.Context, stop context.CancelFunc, application *app.App, stream string, log *zap.Logger) error {
	t := tray.New()
	t.OnToggle(application.SetEnabled)
	t.OnQuit(stop)
	t.OnStream(func() {
		if stream == "" {
			log.Warn("stream unavailable, the http server is disabled")
			return
		}
		if err := openBrowser(stream); err != nil {
			log.Warn("failed to open browser", zap.String("url", stream), zap.Error(err))
		}
	})
	application.OnLabel(t.SetLastGesture)

	if err := application.Start(); err != nil {
		return err
	}
	defer application.Stop()

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
	return nil
}

func streamURL(cfg config.ServerConfig) string {
	if !cfg.Enabled {
		return ""
	}
	return "http://" + cfg.Addr + "/api/stream"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mimic/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mimic", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
