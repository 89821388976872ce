package model

import (
	"fmt"

	"github.com/Brownie44l1/category-predictor/internal/estimator"
	"github.com/Brownie44l1/category-predictor/internal/onnx"
)

const (
	BackendNative = "native"
	BackendONNX   = "onnx"
)

// Load deserializes the model once. The returned predictor never reloads it.
func Load(backend, modelPath, metadataPath string) (*Predictor, error) {
	switch backend {
	case BackendNative, "":
		clf, err := estimator.Load(modelPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load model %s: %w", modelPath, err)
		}
		return NewPredictor(clf), nil
	case BackendONNX:
		session, err := onnx.NewSession(modelPath, metadataPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load model %s: %w", modelPath, err)
		}
		return NewPredictor(session), nil
	default:
		return nil, fmt.Errorf("unsupported model backend %q", backend)
	}
}
