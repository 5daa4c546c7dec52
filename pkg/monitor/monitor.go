package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/candidwatch/go-proctor/internal/log"
	"github.com/candidwatch/go-proctor/pkg/detection"
	"github.com/candidwatch/go-proctor/pkg/event"
)

// EventSink is where qualifying events land. The session store satisfies
// this; tests substitute their own.
type EventSink interface {
	AppendEvent(ctx context.Context, sessionID string, draft event.Draft) (*event.Event, error)
}

// Monitor drives detector polling for one session: a presence/gaze ticker
// and an object ticker, independently timed. Qualifying events go to the
// sink and onto the Events channel for subscribers.
//
// Stopping is deterministic: after Stop returns, no further events are
// appended or published, and in-flight detector results are discarded.
type Monitor struct {
	cfg       Config
	sessionID string
	sink      EventSink
	faces     detection.FaceSampler
	objects   detection.ObjectSampler
	deb       *Debouncer

	events chan event.Event

	// Overlap control: a poll still running when the next tick fires
	// makes that tick a no-op.
	faceBusy   atomic.Bool
	objectBusy atomic.Bool

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a monitor for a session. Either sampler may be nil to
// disable that signal.
func New(cfg Config, sessionID string, sink EventSink, faces detection.FaceSampler, objects detection.ObjectSampler) *Monitor {
	return &Monitor{
		cfg:       cfg,
		sessionID: sessionID,
		sink:      sink,
		faces:     faces,
		objects:   objects,
		events:    make(chan event.Event, 64),
	}
}

// Events returns the channel of emitted events. It is closed when the
// monitor stops, so consumers can range over it.
func (m *Monitor) Events() <-chan event.Event {
	return m.events
}

// Start launches the polling loops. Returns immediately; use Stop or
// cancel the context to end monitoring.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return // already running
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.deb = NewDebouncer(m.cfg, time.Now())

	go m.run(runCtx)
}

// run is the ticker loop, one per monitor.
func (m *Monitor) run(ctx context.Context) {
	faceTicker := time.NewTicker(m.cfg.FaceInterval)
	objectTicker := time.NewTicker(m.cfg.ObjectInterval)
	defer faceTicker.Stop()
	defer objectTicker.Stop()
	defer close(m.done)

	log.Info("monitoring started",
		"session", m.sessionID,
		"face_interval", m.cfg.FaceInterval,
		"object_interval", m.cfg.ObjectInterval)

	for {
		select {
		case <-ctx.Done():
			m.wg.Wait()
			return

		case <-faceTicker.C:
			if m.faces != nil && m.faceBusy.CompareAndSwap(false, true) {
				m.wg.Add(1)
				go func() {
					defer m.wg.Done()
					defer m.faceBusy.Store(false)
					m.pollFace(ctx)
				}()
			}

		case <-objectTicker.C:
			if m.objects != nil && m.objectBusy.CompareAndSwap(false, true) {
				m.wg.Add(1)
				go func() {
					defer m.wg.Done()
					defer m.objectBusy.Store(false)
					m.pollObjects(ctx)
				}()
			}
		}
	}
}

// pollFace samples presence/gaze once and feeds the debouncer.
// A failed detector call is a no-op tick, never an error to the caller.
func (m *Monitor) pollFace(ctx context.Context) {
	sample, err := m.faces.SampleFaceAndGaze(ctx)
	if err != nil {
		log.Debug("face sample failed, skipping tick", "session", m.sessionID, "error", err)
		return
	}
	drafts := m.deb.ObserveFace(sample, time.Now())
	m.emit(ctx, drafts)
}

// pollObjects samples objects once and feeds the debouncer.
func (m *Monitor) pollObjects(ctx context.Context) {
	samples, err := m.objects.SampleObjects(ctx)
	if err != nil {
		log.Debug("object sample failed, skipping tick", "session", m.sessionID, "error", err)
		return
	}
	drafts := m.deb.ObserveObjects(samples, time.Now())
	m.emit(ctx, drafts)
}

// emit appends qualifying drafts to the sink and publishes them. Nothing
// is emitted once the monitor has stopped, even from an in-flight poll.
func (m *Monitor) emit(ctx context.Context, drafts []event.Draft) {
	for _, draft := range drafts {
		m.mu.Lock()
		if m.stopped || ctx.Err() != nil {
			m.mu.Unlock()
			return
		}

		ev, err := m.sink.AppendEvent(ctx, m.sessionID, draft)
		if err != nil {
			m.mu.Unlock()
			log.Warn("failed to record event", "session", m.sessionID, "type", draft.Type, "error", err)
			continue
		}

		select {
		case m.events <- *ev:
		default:
			// Subscriber fell behind; the ledger still has the event.
		}
		m.mu.Unlock()

		log.Info("integrity event",
			"session", m.sessionID,
			"type", ev.Type,
			"severity", ev.Severity,
			"description", ev.Description)
	}
}

// Stop cancels both pollers, waits for in-flight polls to finish, and
// closes the Events channel. Safe to call more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped || m.cancel == nil {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	cancel()
	<-done
	close(m.events)
}
