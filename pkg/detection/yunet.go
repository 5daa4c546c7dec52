package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/candidwatch/go-proctor/pkg/debug"
)

// FaceConfig holds YuNet sampler configuration.
type FaceConfig struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height

	// AwayOffset is how far (normalized, 0-0.5) the best face's center may
	// drift from frame center before the sample counts as looking away.
	AwayOffset float64
}

// DefaultFaceConfig returns production defaults for YuNet.
func DefaultFaceConfig() FaceConfig {
	return FaceConfig{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
		AwayOffset:       0.3,
	}
}

// YuNetSampler detects faces with OpenCV's FaceDetectorYN and derives a
// gaze heuristic from where the best face sits in the frame.
type YuNetSampler struct {
	detector gocv.FaceDetectorYN
	source   FrameSource
	config   FaceConfig
	mu       sync.Mutex // Protects inference
}

// NewYuNet creates a YuNet face sampler over a frame source.
func NewYuNet(cfg FaceConfig, source FrameSource) (*YuNetSampler, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"", // No config file needed for ONNX
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetSampler{
		detector: detector,
		source:   source,
		config:   cfg,
	}, nil
}

// SampleFaceAndGaze captures a frame and returns the presence/gaze sample.
func (s *YuNetSampler) SampleFaceAndGaze(ctx context.Context) (FaceSample, error) {
	frame, err := s.source.CaptureJPEG()
	if err != nil {
		return FaceSample{}, fmt.Errorf("capture frame: %w", err)
	}

	faces, err := s.detectFaces(frame)
	if err != nil {
		return FaceSample{}, err
	}

	sample := FaceSample{
		FaceCount:  len(faces),
		ObservedAt: time.Now(),
	}

	best := selectBest(faces)
	if best != nil {
		cx, _ := best.Box.Center()
		sample.Confidence = best.Confidence
		sample.LookingAway = math.Abs(cx-0.5) > s.config.AwayOffset
	}

	if len(faces) > 0 {
		debug.DetectLog("YuNet found %d face(s)\n", len(faces))
	}

	return sample, nil
}

// detectFaces runs YuNet on a JPEG frame.
func (s *YuNetSampler) detectFaces(jpeg []byte) ([]face, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	s.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	out := gocv.NewMat()
	defer out.Close()

	s.detector.Detect(img, &out)

	// YuNet output format (15 columns):
	// 0-3: x, y, w, h (bounding box in pixels)
	// 4-13: 5 facial landmarks (x,y pairs)
	// 14: face score
	var faces []face
	for r := 0; r < out.Rows(); r++ {
		faces = append(faces, face{
			Box: BoundingBox{
				X: float64(out.GetFloatAt(r, 0)) / imgW,
				Y: float64(out.GetFloatAt(r, 1)) / imgH,
				W: float64(out.GetFloatAt(r, 2)) / imgW,
				H: float64(out.GetFloatAt(r, 3)) / imgH,
			},
			Confidence: float64(out.GetFloatAt(r, 14)),
		})
	}

	return faces, nil
}

// Close releases the detector resources.
func (s *YuNetSampler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detector.Close()
	return nil
}
