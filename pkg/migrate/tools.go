package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CreateSQLMigration writes an empty timestamped goose SQL migration file.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating migrations dir: %w", err)
	}

	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	filename := fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format("20060102150405"), slug)
	path := filepath.Join(dir, filename)

	template := "-- +goose Up\n-- +goose StatementBegin\n\n-- +goose StatementEnd\n\n-- +goose Down\n-- +goose StatementBegin\n\n-- +goose StatementEnd\n"
	if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
		return "", fmt.Errorf("writing migration file: %w", err)
	}
	return path, nil
}

// ValidateDir checks the migrations directory exists and every SQL file carries
// the goose Up/Down annotations.
func ValidateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading migrations dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		content := string(raw)
		if !strings.Contains(content, "-- +goose Up") {
			return fmt.Errorf("%s: missing '-- +goose Up' annotation", entry.Name())
		}
		if !strings.Contains(content, "-- +goose Down") {
			return fmt.Errorf("%s: missing '-- +goose Down' annotation", entry.Name())
		}
	}
	return nil
}
