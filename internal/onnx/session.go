package onnx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/category-predictor/internal/table"
)

// Session runs a classifier exported to ONNX with separate label and
// probability outputs (skl2onnx with zipmap disabled). Labels are exported
// as int64 indices into Metadata.Classes.
type Session struct {
	session     *ort.AdvancedSession
	Metadata    Metadata
	inputTensor *ort.Tensor[float32]
	labelTensor *ort.Tensor[int64]
	probTensor  *ort.Tensor[float32]

	// ownsEnv is set when this session initialized the process-wide
	// onnxruntime environment and must destroy it on Close.
	ownsEnv bool

	mu sync.Mutex
}

var destroyEnvironment = ort.DestroyEnvironment

// releaseEnvironment destroys the onnxruntime environment only when the
// caller initialized it.
func releaseEnvironment(owned bool) error {
	if !owned {
		return nil
	}
	return destroyEnvironment()
}

func NewSession(modelPath, metadataPath string) (*Session, error) {
	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	libPath := resolveSharedLibraryPath(filepath.Dir(modelPath))
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ownsEnv := false
	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
		ownsEnv = true
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(metadata.Features.Width())))
	if err != nil {
		_ = releaseEnvironment(ownsEnv)
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	labelTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		inputTensor.Destroy()
		_ = releaseEnvironment(ownsEnv)
		return nil, fmt.Errorf("failed to create label tensor: %w", err)
	}

	probTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(metadata.Classes))))
	if err != nil {
		inputTensor.Destroy()
		labelTensor.Destroy()
		_ = releaseEnvironment(ownsEnv)
		return nil, fmt.Errorf("failed to create probability tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.LabelName, metadata.ProbabilityName},
		[]ort.Value{inputTensor}, []ort.Value{labelTensor, probTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		labelTensor.Destroy()
		probTensor.Destroy()
		_ = releaseEnvironment(ownsEnv)
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Session{
		session:     session,
		Metadata:    metadata,
		inputTensor: inputTensor,
		labelTensor: labelTensor,
		probTensor:  probTensor,
		ownsEnv:     ownsEnv,
	}, nil
}

func (s *Session) Classes() []string {
	return append([]string(nil), s.Metadata.Classes...)
}

func (s *Session) PredictProba(f table.Frame) ([][]float64, error) {
	_, probs, err := s.run(f)
	if err != nil {
		return nil, err
	}
	return [][]float64{probs}, nil
}

func (s *Session) Predict(f table.Frame) ([]string, error) {
	label, _, err := s.run(f)
	if err != nil {
		return nil, err
	}
	return []string{label}, nil
}

// run executes the session for a one-row frame. The tensors are shared, so
// runs are serialized.
func (s *Session) run(f table.Frame) (string, []float64, error) {
	if s == nil || s.session == nil {
		return "", nil, errors.New("onnx session not initialized")
	}
	if f.Len() != 1 {
		return "", nil, fmt.Errorf("onnx session predicts one row at a time, got %d", f.Len())
	}

	row, err := s.Metadata.Features.Encode(f.Row(0))
	if err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	input := s.inputTensor.GetData()
	for i, v := range row {
		input[i] = float32(v)
	}

	if err := s.session.Run(); err != nil {
		return "", nil, fmt.Errorf("inference failed: %w", err)
	}

	return decodeOutputs(s.Metadata.Classes, s.labelTensor.GetData(), s.probTensor.GetData())
}

func decodeOutputs(classes []string, labels []int64, probs []float32) (string, []float64, error) {
	if len(labels) == 0 {
		return "", nil, errors.New("model produced no label")
	}
	idx := labels[0]
	if idx < 0 || idx >= int64(len(classes)) {
		return "", nil, fmt.Errorf("model produced label index %d outside %d classes", idx, len(classes))
	}
	if len(probs) < len(classes) {
		return "", nil, fmt.Errorf("model produced %d probabilities for %d classes", len(probs), len(classes))
	}

	out := make([]float64, len(classes))
	for i := range classes {
		out[i] = float64(probs[i])
	}
	return classes[idx], out, nil
}

func (s *Session) Close() error {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.labelTensor != nil {
		s.labelTensor.Destroy()
	}
	if s.probTensor != nil {
		s.probTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	owned := s.ownsEnv
	s.ownsEnv = false
	return releaseEnvironment(owned)
}

// resolveSharedLibraryPath looks for the onnxruntime shared library.
// ONNXRUNTIME_SHARED_LIBRARY_PATH wins over the probed locations.
func resolveSharedLibraryPath(modelDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.so",
		"onnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{
		modelDir,
		filepath.Join(modelDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
