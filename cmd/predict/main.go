package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Brownie44l1/category-predictor/internal/config"
	"github.com/Brownie44l1/category-predictor/internal/logger"
	"github.com/Brownie44l1/category-predictor/internal/model"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		var logged *loggedError
		if !errors.As(err, &logged) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// loggedError marks an error that run already reported through the logger.
type loggedError struct {
	err error
}

func (e *loggedError) Error() string { return e.err.Error() }

func (e *loggedError) Unwrap() error { return e.err }

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML config")
	inputPath := fs.String("input", "-", "feature record JSON file, - for stdin")
	recordPath := fs.String("path", "", "gjson path of the record inside the input document")
	pretty := fs.Bool("pretty", false, "indent the JSON output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}

	cfgFile := *configPath
	if !filepath.IsAbs(cfgFile) {
		cfgFile = filepath.Join(root, cfgFile)
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ResolvePaths(root)

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Loading model",
		zap.String("path", cfg.Model.Path),
		zap.String("backend", cfg.Model.Backend),
		zap.String("model_version", model.ModelVersion))

	predictor, err := model.Load(cfg.Model.Backend, cfg.Model.Path, cfg.Model.MetadataPath)
	if err != nil {
		log.Error("Failed to load model", zap.Error(err))
		return &loggedError{err}
	}
	defer predictor.Close()

	log.Info("Model loaded", zap.Strings("classes", predictor.Classes()))

	features, err := readRecord(*inputPath, *recordPath, stdin)
	if err != nil {
		log.Error("Failed to read feature record", zap.Error(err))
		return &loggedError{err}
	}

	result, err := predictor.Predict(features)
	if err != nil {
		log.Error("Prediction failed", zap.Error(err))
		return &loggedError{fmt.Errorf("prediction failed: %w", err)}
	}

	log.Debug("Prediction",
		zap.String("predicted_category", result.PredictedCategory),
		zap.Float64("confidence", result.Confidence))

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

// projectRoot returns the working directory, or the repository root when
// started from cmd/predict.
func projectRoot() (string, error) {
	execPath, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	if filepath.Base(execPath) == "predict" && filepath.Base(filepath.Dir(execPath)) == "cmd" {
		execPath = filepath.Join(execPath, "../..")
	}
	return execPath, nil
}
