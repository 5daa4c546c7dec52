// Command proctord runs the interview-proctoring server: session API,
// live event feed, and detector-driven monitoring.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/candidwatch/go-proctor/internal/config"
	"github.com/candidwatch/go-proctor/internal/log"
	"github.com/candidwatch/go-proctor/pkg/debug"
	"github.com/candidwatch/go-proctor/pkg/detection"
	"github.com/candidwatch/go-proctor/pkg/monitor"
	"github.com/candidwatch/go-proctor/pkg/store"
	"github.com/candidwatch/go-proctor/pkg/web"
)

func main() {
	var (
		port         = flag.String("port", "", "HTTP port (default from PROCTOR_PORT or 8090)")
		storeKind    = flag.String("store", "", "store backend: memory, json, postgres (default from PROCTOR_STORE or memory)")
		jsonPath     = flag.String("json-path", "", "path for the json store (default from PROCTOR_JSON_PATH)")
		detectors    = flag.String("detectors", "", "detector backend: opencv, sim, none (default from PROCTOR_DETECTORS or sim)")
		frameURL     = flag.String("frame-url", "", "camera snapshot URL for the opencv backend (default from PROCTOR_FRAME_URL)")
		debugFlag    = flag.Bool("debug", false, "enable debug logging")
		debugDetect  = flag.Bool("debug-detection", false, "enable verbose detection logging")
	)
	flag.Parse()

	config.LoadEnv()

	debug.Enabled = *debugFlag || config.GetBool("PROCTOR_DEBUG", false)
	debug.Detection = *debugDetect || config.GetBool("PROCTOR_DEBUG_DETECTION", false)

	level := "info"
	if debug.Enabled {
		level = "debug"
	}
	log.Init(level)

	if *port == "" {
		*port = config.GetString("PROCTOR_PORT", "8090")
	}
	if *storeKind == "" {
		*storeKind = config.GetString("PROCTOR_STORE", "memory")
	}
	if *detectors == "" {
		*detectors = config.GetString("PROCTOR_DETECTORS", "sim")
	}
	if *frameURL == "" {
		*frameURL = config.GetString("PROCTOR_FRAME_URL", "")
	}

	st, err := buildStore(*storeKind, *jsonPath)
	if err != nil {
		log.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	monitorCfg := monitor.DefaultConfig()
	monitorCfg.FaceInterval = config.GetDuration("PROCTOR_FACE_INTERVAL", monitorCfg.FaceInterval)
	monitorCfg.ObjectInterval = config.GetDuration("PROCTOR_OBJECT_INTERVAL", monitorCfg.ObjectInterval)

	server := web.NewServer(*port, st, monitorCfg)
	server.NewSamplers = samplerFactory(*detectors, *frameURL)

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildStore selects the persistence backend.
func buildStore(kind, jsonPath string) (store.Store, error) {
	switch kind {
	case "memory":
		return store.NewMemory(), nil
	case "json":
		if jsonPath == "" {
			jsonPath = config.GetString("PROCTOR_JSON_PATH", "data/proctor.json")
		}
		return store.NewJSON(jsonPath)
	case "postgres":
		dsn := config.GetString("PROCTOR_POSTGRES_DSN", "")
		if dsn == "" {
			return nil, fmt.Errorf("postgres store requires PROCTOR_POSTGRES_DSN")
		}
		return store.NewPostgres(context.Background(), dsn)
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
}

// samplerFactory builds the per-session detector constructor for the
// chosen backend. Returns nil for "none", which disables monitoring.
func samplerFactory(kind, frameURL string) func() (detection.FaceSampler, detection.ObjectSampler, error) {
	switch kind {
	case "opencv":
		return func() (detection.FaceSampler, detection.ObjectSampler, error) {
			if frameURL == "" {
				return nil, nil, fmt.Errorf("opencv detectors require a frame URL")
			}
			source := detection.NewHTTPFrameSource(frameURL)

			faceCfg := detection.DefaultFaceConfig()
			faceCfg.ModelPath = config.GetString("PROCTOR_FACE_MODEL", faceCfg.ModelPath)
			faces, err := detection.NewYuNet(faceCfg, source)
			if err != nil {
				return nil, nil, err
			}

			objCfg := detection.DefaultObjectConfig()
			objCfg.ModelPath = config.GetString("PROCTOR_OBJECT_MODEL", objCfg.ModelPath)
			objects, err := detection.NewYOLO(objCfg, source)
			if err != nil {
				faces.Close()
				return nil, nil, err
			}
			return faces, objects, nil
		}
	case "sim":
		return func() (detection.FaceSampler, detection.ObjectSampler, error) {
			profile := detection.ShadyProfile()
			seed := uint64(config.GetInt("PROCTOR_SIM_SEED", 0))
			return detection.NewSimFace(profile, seed), detection.NewSimObjects(profile, seed), nil
		}
	default:
		return nil
	}
}
