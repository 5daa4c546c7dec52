package detection

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/candidwatch/go-proctor/pkg/debug"
)

// ObjectConfig holds YOLO sampler configuration.
type ObjectConfig struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
}

// DefaultObjectConfig returns production defaults for YOLOv8n.
func DefaultObjectConfig() ObjectConfig {
	return ObjectConfig{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// YOLOSampler detects objects with a YOLOv8 ONNX model over a frame source.
type YOLOSampler struct {
	net       gocv.Net
	source    FrameSource
	config    ObjectConfig
	mu        sync.Mutex
	inputSize image.Point
}

// NewYOLO creates a YOLO object sampler over a frame source.
func NewYOLO(cfg ObjectConfig, source FrameSource) (*YOLOSampler, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLOSampler{
		net:       net,
		source:    source,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// SampleObjects captures a frame and returns detected objects.
func (s *YOLOSampler) SampleObjects(ctx context.Context) ([]ObjectSample, error) {
	frame, err := s.source.CaptureJPEG()
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	img, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	imgW := float32(img.Cols())
	imgH := float32(img.Rows())

	blob := gocv.BlobFromImage(img, 1.0/255.0, s.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")

	output := s.net.Forward("")
	defer output.Close()

	samples := s.parseYOLOv8Output(output, imgW, imgH)

	if len(samples) > 0 {
		debug.DetectLog("YOLO found %d object(s)\n", len(samples))
	}

	return samples, nil
}

// parseYOLOv8Output parses the YOLOv8 output tensor.
func (s *YOLOSampler) parseYOLOv8Output(output gocv.Mat, imgW, imgH float32) []ObjectSample {
	var samples []ObjectSample
	var boxes []image.Rectangle
	var confidences []float32
	var classIDs []int

	// YOLOv8 output: [1, 84, 8400] - 84 = 4 bbox + 80 class scores
	rows := output.Cols() // 8400 detections
	cols := output.Rows() // 84

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil
	}

	for i := 0; i < rows; i++ {
		maxScore := float32(0)
		maxClassID := 0

		for c := 4; c < cols; c++ {
			score := data[c*rows+i]
			if score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}

		if maxScore < s.config.ConfidenceThresh {
			continue
		}

		// Bounding box arrives as center x, center y, width, height
		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]

		x1 := int((cx - w/2) * imgW / float32(s.config.InputWidth))
		y1 := int((cy - h/2) * imgH / float32(s.config.InputHeight))
		x2 := int((cx + w/2) * imgW / float32(s.config.InputWidth))
		y2 := int((cy + h/2) * imgH / float32(s.config.InputHeight))

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClassID)
	}

	if len(boxes) == 0 {
		return samples
	}

	indices := gocv.NMSBoxes(boxes, confidences, s.config.ConfidenceThresh, s.config.NMSThresh)

	for _, idx := range indices {
		box := boxes[idx]
		samples = append(samples, ObjectSample{
			Label:      COCOClasses[classIDs[idx]],
			Confidence: float64(confidences[idx]),
			Box: BoundingBox{
				X: float64(box.Min.X) / float64(imgW),
				Y: float64(box.Min.Y) / float64(imgH),
				W: float64(box.Dx()) / float64(imgW),
				H: float64(box.Dy()) / float64(imgH),
			},
		})
	}

	return samples
}

// Close releases the network resources.
func (s *YOLOSampler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.net.Close()
	return nil
}

// COCOClasses contains the 80 COCO class names in model output order.
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}
