package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"smokegomodule/internal/types"
)

// WriteResults writes results as a JSON array with 2-space indentation
func WriteResults(path string, results []types.TestResult) error {
	if results == nil {
		results = []types.TestResult{}
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file %s: %w", path, err)
	}
	return nil
}

// ReadResults loads a results file written by WriteResults
func ReadResults(path string) ([]types.TestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file %s: %w", path, err)
	}

	var results []types.TestResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse results file %s: %w", path, err)
	}
	return results, nil
}
