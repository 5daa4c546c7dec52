package detection

import (
	"context"
	"sync"
)

// MockFaceSampler implements FaceSampler for testing.
// Behavior is customized via the function field.
type MockFaceSampler struct {
	// SampleFunc is called when SampleFaceAndGaze is invoked.
	// If nil, returns a nominal one-face sample.
	SampleFunc func(ctx context.Context) (FaceSample, error)

	mu    sync.Mutex
	calls int
}

// SampleFaceAndGaze invokes SampleFunc or returns a nominal sample.
func (m *MockFaceSampler) SampleFaceAndGaze(ctx context.Context) (FaceSample, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.SampleFunc != nil {
		return m.SampleFunc(ctx)
	}
	return FaceSample{FaceCount: 1, Confidence: 0.95}, nil
}

// Calls returns how many times the sampler was invoked.
func (m *MockFaceSampler) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op.
func (m *MockFaceSampler) Close() error { return nil }

// MockObjectSampler implements ObjectSampler for testing.
type MockObjectSampler struct {
	// SampleFunc is called when SampleObjects is invoked.
	// If nil, returns no objects.
	SampleFunc func(ctx context.Context) ([]ObjectSample, error)

	mu    sync.Mutex
	calls int
}

// SampleObjects invokes SampleFunc or returns an empty sample.
func (m *MockObjectSampler) SampleObjects(ctx context.Context) ([]ObjectSample, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.SampleFunc != nil {
		return m.SampleFunc(ctx)
	}
	return nil, nil
}

// Calls returns how many times the sampler was invoked.
func (m *MockObjectSampler) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op.
func (m *MockObjectSampler) Close() error { return nil }
