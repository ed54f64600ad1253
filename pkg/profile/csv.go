package profile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// LoadCSV reads a target profile from a two-column "s,z" CSV file, for
// cmd/visualize's -profile flag. This is scaffolding I/O (§1, "external
// scaffolding"): the standard library's encoding/csv is used directly,
// since nothing in the dependency corpus offers a CSV reader and the
// format is a two-field parse, not a domain concern.
func LoadCSV(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("profile: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}

	points := make([]Point, len(records))
	for i, rec := range records {
		s, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("profile: %s line %d: bad s value %q: %w", path, i+1, rec[0], err)
		}
		z, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("profile: %s line %d: bad z value %q: %w", path, i+1, rec[1], err)
		}
		points[i] = Point{S: s, Z: z}
	}

	return New(points)
}
