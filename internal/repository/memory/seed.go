package memory

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/utafrali/review-admin/internal/domain"
)

//go:embed seed.yaml
var sampleSeed string

type seedFile struct {
	Reviews []domain.Review `yaml:"reviews"`
}

// SampleReviews returns the built-in demo reviews.
func SampleReviews() []domain.Review {
	reviews, err := DecodeSeed(strings.NewReader(sampleSeed))
	if err != nil {
		panic(fmt.Sprintf("embedded seed: %v", err))
	}
	return reviews
}

// LoadSeedFile reads reviews from a YAML file with a top-level "reviews" list.
func LoadSeedFile(path string) ([]domain.Review, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	reviews, err := DecodeSeed(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reviews, nil
}

// DecodeSeed decodes and checks a YAML seed document. Unknown fields,
// duplicate ids, unknown statuses and ratings outside 1..5 are rejected.
func DecodeSeed(r io.Reader) ([]domain.Review, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc seedFile
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Reviews))
	for i, rv := range doc.Reviews {
		if rv.ID == "" {
			return nil, fmt.Errorf("review %d: missing id", i)
		}
		if _, dup := seen[rv.ID]; dup {
			return nil, fmt.Errorf("review %s: duplicate id", rv.ID)
		}
		seen[rv.ID] = struct{}{}

		if !rv.Status.IsValid() {
			return nil, fmt.Errorf("review %s: unknown status %q", rv.ID, rv.Status)
		}
		if rv.Rating < 1 || rv.Rating > 5 {
			return nil, fmt.Errorf("review %s: rating %d out of range", rv.ID, rv.Rating)
		}
	}
	return doc.Reviews, nil
}
