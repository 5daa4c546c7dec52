package detection

import (
	"context"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// SimProfile tunes how misbehaved a simulated candidate is. All chances
// are per-sample probabilities in [0,1].
type SimProfile struct {
	AbsenceChance  float64 // no face in frame
	MultipleChance float64 // a second person leans in
	AwayChance     float64 // candidate keeps looking away while present
	ObjectChance   float64 // a suspicious object shows up
}

// HonestProfile simulates a well-behaved candidate.
func HonestProfile() SimProfile {
	return SimProfile{
		AbsenceChance:  0.01,
		MultipleChance: 0.0,
		AwayChance:     0.05,
		ObjectChance:   0.01,
	}
}

// ShadyProfile simulates a candidate worth flagging.
func ShadyProfile() SimProfile {
	return SimProfile{
		AbsenceChance:  0.10,
		MultipleChance: 0.05,
		AwayChance:     0.40,
		ObjectChance:   0.15,
	}
}

// SimFaceSampler produces synthetic presence/gaze samples for demo runs.
// Away-gaze is sticky: once the simulated candidate looks away they stay
// away for a few samples, which is what real candidates do and what the
// debounce logic needs to see.
type SimFaceSampler struct {
	profile SimProfile
	faker   *gofakeit.Faker

	mu        sync.Mutex
	awayLeft  int // samples remaining in the current away streak
	goneLeft  int // samples remaining in the current absence streak
}

// NewSimFace creates a simulated face sampler with a fixed seed for
// reproducible demo runs.
func NewSimFace(profile SimProfile, seed uint64) *SimFaceSampler {
	return &SimFaceSampler{
		profile: profile,
		faker:   gofakeit.New(seed),
	}
}

// SampleFaceAndGaze returns the next synthetic presence/gaze sample.
func (s *SimFaceSampler) SampleFaceAndGaze(ctx context.Context) (FaceSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample := FaceSample{
		FaceCount:  1,
		Confidence: s.faker.Float64Range(0.75, 0.99),
		ObservedAt: time.Now(),
	}

	if s.goneLeft > 0 {
		s.goneLeft--
		sample.FaceCount = 0
		sample.Confidence = 0
		return sample, nil
	}
	if s.faker.Float64Range(0, 1) < s.profile.AbsenceChance {
		// Absence streaks run long enough to cross the no-face threshold
		s.goneLeft = s.faker.IntRange(11, 20)
		sample.FaceCount = 0
		sample.Confidence = 0
		return sample, nil
	}

	if s.faker.Float64Range(0, 1) < s.profile.MultipleChance {
		sample.FaceCount = s.faker.IntRange(2, 3)
		return sample, nil
	}

	if s.awayLeft > 0 {
		s.awayLeft--
		sample.LookingAway = true
	} else if s.faker.Float64Range(0, 1) < s.profile.AwayChance {
		s.awayLeft = s.faker.IntRange(3, 9)
		sample.LookingAway = true
	}

	return sample, nil
}

// Close is a no-op.
func (s *SimFaceSampler) Close() error { return nil }

// simObjectLabels are the objects a simulated candidate might reach for.
var simObjectLabels = []string{"cell phone", "book", "laptop", "remote", "bottle", "cup"}

// SimObjectSampler produces synthetic object detections for demo runs.
type SimObjectSampler struct {
	profile SimProfile
	faker   *gofakeit.Faker
	mu      sync.Mutex
}

// NewSimObjects creates a simulated object sampler with a fixed seed.
func NewSimObjects(profile SimProfile, seed uint64) *SimObjectSampler {
	return &SimObjectSampler{
		profile: profile,
		faker:   gofakeit.New(seed),
	}
}

// SampleObjects returns the next synthetic object detections.
func (s *SimObjectSampler) SampleObjects(ctx context.Context) ([]ObjectSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.faker.Float64Range(0, 1) >= s.profile.ObjectChance {
		return nil, nil
	}

	label := s.faker.RandomString(simObjectLabels)
	return []ObjectSample{{
		Label:      label,
		Confidence: s.faker.Float64Range(0.5, 0.98),
		Box: BoundingBox{
			X: s.faker.Float64Range(0, 0.7),
			Y: s.faker.Float64Range(0, 0.7),
			W: s.faker.Float64Range(0.1, 0.3),
			H: s.faker.Float64Range(0.1, 0.3),
		},
	}}, nil
}

// Close is a no-op.
func (s *SimObjectSampler) Close() error { return nil }
