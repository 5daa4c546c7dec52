package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/candidwatch/go-proctor/pkg/detection"
	"github.com/candidwatch/go-proctor/pkg/event"
)

// recordingSink collects appended events in memory.
type recordingSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *recordingSink) AppendEvent(ctx context.Context, sessionID string, draft event.Draft) (*event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := event.Event{
		ID:          "test",
		SessionID:   sessionID,
		Type:        draft.Type,
		Severity:    draft.Severity,
		Description: draft.Description,
		Timestamp:   draft.Timestamp,
	}
	s.events = append(s.events, ev)
	return &ev, nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.FaceInterval = 5 * time.Millisecond
	cfg.ObjectInterval = 5 * time.Millisecond
	return cfg
}

func TestMonitor_EmitsToSinkAndChannel(t *testing.T) {
	sink := &recordingSink{}
	faces := &detection.MockFaceSampler{
		SampleFunc: func(ctx context.Context) (detection.FaceSample, error) {
			return detection.FaceSample{FaceCount: 2, Confidence: 0.9}, nil
		},
	}

	m := New(fastConfig(), "sess-1", sink, faces, nil)
	m.Start(context.Background())

	var received []event.Event
	done := make(chan struct{})
	go func() {
		for ev := range m.Events() {
			received = append(received, ev)
		}
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	m.Stop()
	<-done

	if sink.count() == 0 {
		t.Fatal("expected multiple_faces events in the sink")
	}
	if len(received) == 0 {
		t.Fatal("expected events on the Events channel")
	}
	for _, ev := range received {
		if ev.Type != event.MultipleFaces {
			t.Errorf("unexpected event type %q", ev.Type)
		}
		if ev.SessionID != "sess-1" {
			t.Errorf("unexpected session id %q", ev.SessionID)
		}
	}
}

func TestMonitor_NoEventsAfterStop(t *testing.T) {
	sink := &recordingSink{}
	faces := &detection.MockFaceSampler{
		SampleFunc: func(ctx context.Context) (detection.FaceSample, error) {
			return detection.FaceSample{FaceCount: 3, Confidence: 0.9}, nil
		},
	}

	m := New(fastConfig(), "sess-2", sink, faces, nil)
	m.Start(context.Background())
	go func() {
		for range m.Events() {
		}
	}()

	time.Sleep(40 * time.Millisecond)
	m.Stop()

	after := sink.count()
	time.Sleep(40 * time.Millisecond)
	if got := sink.count(); got != after {
		t.Errorf("events emitted after Stop: %d -> %d", after, got)
	}
}

func TestMonitor_SlowDetectorDoesNotPileUp(t *testing.T) {
	sink := &recordingSink{}
	faces := &detection.MockFaceSampler{
		SampleFunc: func(ctx context.Context) (detection.FaceSample, error) {
			// Slower than the poll interval: overlapping ticks are skipped
			time.Sleep(20 * time.Millisecond)
			return detection.FaceSample{FaceCount: 1, Confidence: 0.9}, nil
		},
	}

	m := New(fastConfig(), "sess-3", sink, faces, nil)
	m.Start(context.Background())
	go func() {
		for range m.Events() {
		}
	}()

	time.Sleep(100 * time.Millisecond)
	m.Stop()

	// ~5 completed samples fit in 100ms at 20ms each; anything near the
	// tick count (20) would mean ticks piled up behind the slow detector
	if calls := faces.Calls(); calls > 8 {
		t.Errorf("slow detector invoked %d times, overlap control failed", calls)
	}
}

func TestMonitor_DetectorFailureIsSilent(t *testing.T) {
	sink := &recordingSink{}
	faces := &detection.MockFaceSampler{
		SampleFunc: func(ctx context.Context) (detection.FaceSample, error) {
			return detection.FaceSample{}, context.DeadlineExceeded
		},
	}

	m := New(fastConfig(), "sess-4", sink, faces, nil)
	m.Start(context.Background())
	go func() {
		for range m.Events() {
		}
	}()

	time.Sleep(40 * time.Millisecond)
	m.Stop()

	if got := sink.count(); got != 0 {
		t.Errorf("failed detector produced %d events, want 0", got)
	}
}

func TestMonitor_ObjectsFlow(t *testing.T) {
	sink := &recordingSink{}
	objects := &detection.MockObjectSampler{
		SampleFunc: func(ctx context.Context) ([]detection.ObjectSample, error) {
			return []detection.ObjectSample{{Label: "cell phone", Confidence: 0.9}}, nil
		},
	}

	m := New(fastConfig(), "sess-5", sink, nil, objects)
	m.Start(context.Background())
	go func() {
		for range m.Events() {
		}
	}()

	time.Sleep(60 * time.Millisecond)
	m.Stop()

	if sink.count() == 0 {
		t.Fatal("expected suspicious_object events")
	}
}

func TestMonitor_StopTwiceIsSafe(t *testing.T) {
	m := New(fastConfig(), "sess-6", &recordingSink{}, &detection.MockFaceSampler{}, nil)
	m.Start(context.Background())
	go func() {
		for range m.Events() {
		}
	}()
	m.Stop()
	m.Stop() // must not panic or block
}
