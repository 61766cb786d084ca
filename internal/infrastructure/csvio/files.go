package csvio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/localrank/backend/internal/domain"
)

// Export file names, stamped with the run's finish time in unix milliseconds
func OutputCSVName(ts int64) string  { return fmt.Sprintf("places_output_%d.csv", ts) }
func OutputJSONName(ts int64) string { return fmt.Sprintf("places_output_%d.json", ts) }
func MatchesCSVName(ts int64) string { return fmt.Sprintf("places_brand_matches_%d.csv", ts) }

// WriteFiles writes the three exports of a run into dir and returns their
// paths. reduced is the brand-match view of results.
func WriteFiles(dir string, ts int64, results, reduced []domain.PlaceResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{OutputCSVName(ts), func(w io.Writer) error { return WriteCSV(w, results) }},
		{OutputJSONName(ts), func(w io.Writer) error { return WriteJSON(w, results) }},
		{MatchesCSVName(ts), func(w io.Writer) error { return WriteMatchesCSV(w, reduced) }},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeFile(path, f.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
