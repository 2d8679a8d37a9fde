// Command ballrig drives the closed-loop trackball rig: it drains the
// sensor transport once per frame, integrates motion into the agent's
// pose, records every applied frame to the session store, and can
// replay a previously recorded session instead of sensing.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/closedloop-vr/ballrig/internal/behavior"
	"github.com/closedloop-vr/ballrig/internal/config"
	"github.com/closedloop-vr/ballrig/internal/database"
	"github.com/closedloop-vr/ballrig/internal/filter"
	"github.com/closedloop-vr/ballrig/internal/gate"
	"github.com/closedloop-vr/ballrig/internal/geo"
	"github.com/closedloop-vr/ballrig/internal/influx"
	"github.com/closedloop-vr/ballrig/internal/kinematics"
	"github.com/closedloop-vr/ballrig/internal/logging"
	"github.com/closedloop-vr/ballrig/internal/model"
	"github.com/closedloop-vr/ballrig/internal/monitor"
	intOtel "github.com/closedloop-vr/ballrig/internal/otel"
	"github.com/closedloop-vr/ballrig/internal/session"
	"github.com/closedloop-vr/ballrig/internal/storage"
	"github.com/closedloop-vr/ballrig/internal/store"
	"github.com/closedloop-vr/ballrig/internal/transport"
	"github.com/closedloop-vr/ballrig/pkg/core"
)

// Version can be set at build time via ldflags.
var (
	Version   string = "0.1.0"
	BuildDate string = "unknown"
	AppName   string = "ballrig"
)

func main() {
	configDir := flag.String("config", ".", "directory containing ballrig.cfg.json")
	playbackFlag := flag.String("playback", "", "replay a recorded session (.db, .json or .json.gz; bare names resolve against logsDir)")
	behaviorFlag := flag.Bool("behavior", false, "run the timed slip protocol")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (built %s)\n", AppName, Version, BuildDate)
		return
	}

	sessionStart := time.Now()

	// Bootstrap logging to stdout until the config names a log file.
	slogManager := logging.NewSlogManager()
	slogManager.Setup(nil, nil, "info", nil, nil)
	logger := slogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		logger.Info("Loaded config", "dir", *configDir)
	}

	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.MkdirAll(logsDir, 0755)
	}

	logFilePath := logging.LogFilePath(logsDir, AppName, sessionStart)
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logger.Error("Failed to create/open log file!", "error", err, "path", logFilePath)
	}

	var gelfWriter io.Writer
	if viper.GetBool("graylog.enabled") {
		gelfWriter, err = logging.ConnectGraylog(viper.GetString("graylog.address"))
		if err != nil {
			logger.Warn("Graylog unreachable, skipping GELF output", "error", err)
			gelfWriter = nil
		}
	}

	var otelProvider *intOtel.Provider
	var otelLogProvider *sdklog.LoggerProvider
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		otelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			otelLogProvider = otelProvider.LoggerProvider()
			logger.Info("OTel provider initialized", "file", logFilePath)
		}
	}

	// Re-setup with file, GELF and OTel sinks plus dynamic rig context.
	rigName := viper.GetString("rig.name")
	var scheduler *session.Scheduler
	slogManager.Setup(logFile, gelfWriter, viper.GetString("logLevel"), otelLogProvider,
		func() []slog.Attr {
			attrs := []slog.Attr{slog.String("rig", rigName)}
			if scheduler != nil {
				attrs = append(attrs, slog.Int64("frame", scheduler.Frame()))
			}
			return attrs
		})
	logger = slogManager.Logger()
	logger.Info("Logging to file", "path", logFilePath)

	dblog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	var influxManager *influx.Manager
	if viper.GetBool("influx.enabled") {
		influxManager = influx.NewManager(dblog,
			filepath.Join(logsDir, "influx_backup.gz"))
		if err := influxManager.Connect(); err != nil {
			logger.Warn("InfluxDB disabled", "error", err)
			influxManager = nil
		}
	}

	// Session storage.
	sessionDBPath := database.SessionDBPath(logsDir, AppName, sessionStart)
	backend, err := storage.NewBackend(config.GetStorageConfig(), storage.Deps{
		Logger:        logger,
		DBLog:         dblog,
		SessionDBPath: sessionDBPath,
	})
	if err != nil {
		logger.Error("Creating storage backend failed", "error", err)
		os.Exit(1)
	}
	if err := backend.Init(); err != nil {
		logger.Error("Initializing storage backend failed", "error", err)
		os.Exit(1)
	}

	// Cross-session calibration store. This lives outside the session
	// database so the heading mean survives backend choice and session
	// file rotation.
	calibDB, err := database.GetSqliteDBStandalone(filepath.Join(logsDir, "calib.db"))
	if err != nil {
		logger.Error("Opening calibration store failed", "error", err)
		os.Exit(1)
	}
	if err := calibDB.AutoMigrate(&model.CalibValue{}); err != nil {
		logger.Error("Migrating calibration store failed", "error", err)
		os.Exit(1)
	}
	calib := store.NewCalib(calibDB)

	headingKey := filter.HierarchyKey(rigName,
		viper.GetString("rig.stage"), viper.GetString("rig.agent"))
	headingMean := filter.NewCircularMean(
		viper.GetInt("motion.headingWindow"), headingKey, backend)
	headingMean.Restore(calib)

	info := &core.SessionInfo{
		RigName:        rigName,
		StartTime:      sessionStart,
		ConfigSnapshot: viper.AllSettings(),
	}
	lon := viper.GetFloat64("rig.site.longitude")
	lat := viper.GetFloat64("rig.site.latitude")
	if lon != 0 || lat != 0 {
		if site, err := geo.Site3857From4326(lon, lat); err == nil {
			info.SiteWKT = site.AsText()
		} else {
			logger.Warn("Invalid rig site coordinates", "lon", lon, "lat", lat)
		}
	}
	if err := backend.StartSession(info); err != nil {
		logger.Error("Starting session failed", "error", err)
		os.Exit(1)
	}

	// Motion pipeline.
	sensorCfg := config.GetSensorConfig()
	sep := byte(',')
	if sensorCfg.Separator != "" {
		sep = sensorCfg.Separator[0]
	}
	decoder := &kinematics.SampleDecoder{
		Sep:            sep,
		FieldForward:   sensorCfg.FieldForward,
		FieldSideways:  sensorCfg.FieldSideways,
		FieldHeading:   sensorCfg.FieldHeading,
		FieldTimestamp: sensorCfg.FieldTimestamp,
		BallRadius:     sensorCfg.BallRadius,
	}
	gateCfg := config.GetGateConfig()
	speedGate := gate.New(gateCfg.ThresholdDegPerSec, gateCfg.SmoothingAlpha)
	smoother := filter.NewSmoother(viper.GetInt("motion.smoothingWindow"))
	integrator := kinematics.NewSmoothed(
		viper.GetFloat64("motion.gain"), smoother, speedGate)
	integrator.SetHeading(headingMean.Mean())

	var machine *behavior.Machine
	if *behaviorFlag {
		bc := config.GetBehaviorConfig()
		machine = behavior.New(behavior.Config{
			PrimaryDuration:   bc.PrimaryDuration.Seconds(),
			SecondaryDuration: bc.SecondaryDuration.Seconds(),
			RotationRate:      bc.RotationRate,
		})
		logger.Info("Timed slip protocol armed",
			"primary", bc.PrimaryDuration, "secondary", bc.SecondaryDuration,
			"rate", bc.RotationRate)
	}

	writeCfg := config.GetWriteConfig()
	deps := session.Dependencies{
		Decoder:     decoder,
		Integrator:  integrator,
		Gate:        speedGate,
		Behavior:    machine,
		HeadingMean: headingMean,
		Backend:     backend,
		Logger:      logger,
	}

	var udp *transport.UDP
	playbackFrames, replaying := resolvePlayback(*playbackFlag, logsDir, logger)
	if replaying {
		scheduler = session.NewReplay(deps, playbackFrames)
	} else {
		// No sensing source is fatal: running live with undefined motion
		// is worse than not running.
		udp = transport.NewUDP(sensorCfg.ListenAddr, 4096, logger)
		if err := udp.Start(); err != nil {
			logger.Error("Sensor transport failed to start", "addr", sensorCfg.ListenAddr, "error", err)
			os.Exit(1)
		}
		deps.Transport = udp
		scheduler = session.New(session.WriteConfig{
			StillFrames:      writeCfg.StillFrames,
			MinWriteInterval: writeCfg.MinWriteInterval,
			MaxWriteInterval: writeCfg.MaxWriteInterval,
		}, deps)
		logger.Info("Sensor transport listening", "addr", sensorCfg.ListenAddr)
	}

	monitorService := monitor.NewService(monitor.Dependencies{
		LogManager: slogManager,
		Influx:     influxManager,
		Source:     scheduler,
		RigName:    rigName,
		StatusDir:  logsDir,
		Interval:   time.Second,
	})
	monitorService.Start()

	if influxManager != nil {
		influxManager.WritePoint(context.Background(), influx.BucketSessionData,
			influx.NewSessionPoint(rigName, "start", 0))
	}

	// Frame loop.
	frameRate := viper.GetInt("frameRate")
	if frameRate <= 0 {
		frameRate = 60
	}
	dt := 1.0 / float64(frameRate)
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Rig running", "mode", scheduler.Mode(), "frameRate", frameRate)

loop:
	for {
		select {
		case <-sigCh:
			logger.Info("Shutdown signal received")
			break loop
		case <-ticker.C:
			scheduler.Tick(dt)
		}
	}

	// Ordered shutdown: stop sensing, final flush, persist the heading
	// mean, then close the session.
	if udp != nil {
		udp.Stop()
	}
	monitorService.Stop()

	if err := scheduler.Close(); err != nil {
		logger.Error("Final flush failed", "error", err)
	}
	if err := headingMean.Persist(calib); err != nil {
		logger.Error("Persisting heading mean failed", "error", err)
	}
	if err := backend.EndSession(); err != nil {
		logger.Error("Ending session failed", "error", err)
	}
	if exp, ok := backend.(storage.Exportable); ok {
		logger.Info("Session exported", "path", exp.ExportedFilePath())
	}
	if err := backend.Close(); err != nil {
		logger.Error("Closing storage backend failed", "error", err)
	}

	if influxManager != nil {
		influxManager.WritePoint(context.Background(), influx.BucketSessionData,
			influx.NewSessionPoint(rigName, "end", scheduler.Frame()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slogManager.Flush(ctx)
	if otelProvider != nil {
		otelProvider.Shutdown(ctx)
	}

	logger.Info("Session closed", "frames", scheduler.Frame(),
		"duration", time.Since(sessionStart).Round(time.Second))
}

// resolvePlayback loads the replay trace named by the flag. Bare
// filenames resolve against logsDir. A missing file disables playback
// with a diagnostic; the rig continues live.
func resolvePlayback(flagValue, logsDir string, logger *slog.Logger) ([]core.FrameRecord, bool) {
	if flagValue == "" {
		return nil, false
	}

	path := flagValue
	if filepath.Dir(path) == "." {
		path = filepath.Join(logsDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		available, _ := database.SessionDBPaths(logsDir)
		logger.Warn("Playback file not found, continuing live",
			"path", path, "available", available)
		return nil, false
	}

	frames, err := storage.ReadFrames(path)
	if err != nil {
		logger.Warn("Reading playback file failed, continuing live", "path", path, "error", err)
		return nil, false
	}
	logger.Info("Loaded playback trace", "path", path, "frames", len(frames))
	return frames, true
}
