package storage

import (
	"encoding/csv"
	"fmt"
	"olx-scraper/models"
	"olx-scraper/utils"
	"os"
	"path/filepath"
	"time"
)

// CSVWriter saves ads to a CSV file, one row per ad, header first.
type CSVWriter struct {
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

func (w *CSVWriter) Path() string {
	return w.path
}

// Write saves all ads in order. An empty slice only logs a warning and
// leaves the filesystem untouched.
//
// CSV columns: title, price, url
func (w *CSVWriter) Write(ads []models.Ad) error {
	if len(ads) == 0 {
		utils.Warn("No ads to save.")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(models.Columns); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	for _, ad := range ads {
		if err := writer.Write(ad.Row()); err != nil {
			return fmt.Errorf("csv write error: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}

	utils.Success("Saved %d ads to %s", len(ads), w.path)
	return nil
}

// TimestampedPath returns dir/prefix_YYYYMMDD_HHMMSS.ext so that repeated
// runs never overwrite each other.
func TimestampedPath(dir, prefix, ext string, at time.Time) string {
	name := fmt.Sprintf("%s_%s.%s", prefix, at.Format("20060102_150405"), ext)
	return filepath.Join(dir, name)
}
