package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/Brownie44l1/category-predictor/internal/table"
)

const maxInputSize = 10 << 20

// readRecord reads one feature record from a file or stdin. When path is
// set, the record is the object at that gjson path in the document.
func readRecord(inputPath, path string, stdin io.Reader) (table.Record, error) {
	var src io.Reader = stdin
	if inputPath != "" && inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		src = f
	}

	body, err := io.ReadAll(io.LimitReader(src, maxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(body) > maxInputSize {
		return nil, fmt.Errorf("input larger than %d bytes", maxInputSize)
	}

	if path != "" {
		if !gjson.ValidBytes(body) {
			return nil, fmt.Errorf("input is not valid JSON")
		}
		res := gjson.GetBytes(body, path)
		if !res.Exists() {
			return nil, fmt.Errorf("no value at path %q", path)
		}
		if !res.IsObject() {
			return nil, fmt.Errorf("value at path %q is not an object", path)
		}
		body = []byte(res.Raw)
	}

	return table.DecodeRecord(bytes.NewReader(body))
}
