package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hosttab/hosttab/internal/model"
)

// readInto loads a JSON or YAML file into out, sniffing the format from
// the file extension. JSON is the default for unknown extensions.
func readInto(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return nil
}

func loadEvents(path string) ([]model.NormalizedCalendarEvent, error) {
	var events []model.NormalizedCalendarEvent
	if err := readInto(path, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func loadRules(path string) ([]model.ClassificationRule, error) {
	var rules []model.ClassificationRule
	if err := readInto(path, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func loadHostingEvents(path string) ([]model.HostingEvent, error) {
	var events []model.HostingEvent
	if err := readInto(path, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// writeDoc writes v in the format the path's extension asks for, so a
// YAML rules file rewritten in place stays YAML
func writeDoc(path string, v interface{}) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	default:
		return writeJSON(path, v)
	}
}

// writeJSON writes v as indented JSON, to stdout when path is "-"
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
