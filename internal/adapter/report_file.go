package adapter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	m "spectra.dev/pkg/spectra/internal/model"
)

// WriteReport saves the report to path. The extension picks the encoding:
// .json, .yaml or .yml.
func WriteReport(path m.Path, report m.Report) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(string(path))) {
	case ".json":
		data, err = json.MarshalIndent(report, "", "  ")
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(report)
	default:
		return fmt.Errorf("report %s: unsupported extension, use .json, .yaml or .yml", path)
	}

	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if dir := filepath.Dir(string(path)); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	if err := os.WriteFile(string(path), data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}
