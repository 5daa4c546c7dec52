// Command simulate runs a synthetic proctoring session end to end and
// prints the resulting integrity report. Useful for demos and for eyeballing
// scoring behavior without a camera.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/candidwatch/go-proctor/internal/log"
	"github.com/candidwatch/go-proctor/pkg/detection"
	"github.com/candidwatch/go-proctor/pkg/monitor"
	"github.com/candidwatch/go-proctor/pkg/report"
	"github.com/candidwatch/go-proctor/pkg/session"
	"github.com/candidwatch/go-proctor/pkg/store"
)

func main() {
	var (
		candidate = flag.String("candidate", "Jane Doe", "candidate name")
		duration  = flag.Duration("duration", 30*time.Second, "how long to run the simulated session")
		profile   = flag.String("profile", "shady", "candidate profile: honest, shady")
		seed      = flag.Uint64("seed", 42, "random seed for reproducible runs")
		fast      = flag.Bool("fast", true, "run at 10x speed (scaled intervals and thresholds)")
	)
	flag.Parse()

	log.Init("info")

	var prof detection.SimProfile
	switch *profile {
	case "honest":
		prof = detection.HonestProfile()
	case "shady":
		prof = detection.ShadyProfile()
	default:
		fmt.Fprintf(os.Stderr, "unknown profile %q\n", *profile)
		os.Exit(1)
	}

	cfg := monitor.DefaultConfig()
	if *fast {
		cfg.FaceInterval /= 10
		cfg.ObjectInterval /= 10
		cfg.NoFaceAfter /= 10
		cfg.FocusLossAfter /= 10
	}

	st := store.NewMemory()
	sessions := session.NewManager(st)

	ctx := context.Background()
	sess, err := sessions.Create(ctx, *candidate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create session: %v\n", err)
		os.Exit(1)
	}

	m := monitor.New(cfg, sess.ID, st,
		detection.NewSimFace(prof, *seed),
		detection.NewSimObjects(prof, *seed+1))
	m.Start(ctx)

	// Drain the live feed so the channel never backs up
	go func() {
		for range m.Events() {
		}
	}()

	log.Info("simulation running", "candidate", *candidate, "duration", *duration, "profile", *profile)
	time.Sleep(*duration)
	m.Stop()

	if _, err := sessions.Complete(ctx, sess.ID); err != nil {
		fmt.Fprintf(os.Stderr, "failed to complete session: %v\n", err)
		os.Exit(1)
	}

	rep, err := report.Build(ctx, st, sess.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build report: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
