// Package query implements the batch query-text protocol (§6): parsing
// and validating one query line into a seed center/radius and target
// profile, and formatting a result line. It mirrors the donor's
// pkg/api request-validation style (validateCoord, writeError) over a
// line-oriented protocol instead of HTTP JSON.
package query

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"elevroute/pkg/profile"
)

// ErrMalformedQuery is returned for a query line that fails validation:
// negative radius, non-monotone s, an odd token count, or non-finite
// numbers.
var ErrMalformedQuery = errors.New("query: malformed query")

// Query is one parsed, validated line of the batch protocol.
type Query struct {
	CenterX, CenterY float64
	Radius           float64
	Target           *profile.Profile
}

// Parse validates and decodes one whitespace-separated query line:
// "cx cy radius s0 z0 s1 z1 ... sk zk" with s0=0 and s strictly
// increasing. z0 is taken as given; a nonzero z0 is not rejected.
func Parse(line string) (Query, error) {
	fields := strings.Fields(line)
	if len(fields) < 3+4 || (len(fields)-3)%2 != 0 {
		return Query{}, fmt.Errorf("%w: expected \"cx cy radius s0 z0 ... sk zk\", got %d fields", ErrMalformedQuery, len(fields))
	}

	nums := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Query{}, fmt.Errorf("%w: field %d (%q): %v", ErrMalformedQuery, i, f, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Query{}, fmt.Errorf("%w: field %d is not finite", ErrMalformedQuery, i)
		}
		nums[i] = v
	}

	cx, cy, radius := nums[0], nums[1], nums[2]
	if radius < 0 {
		return Query{}, fmt.Errorf("%w: negative radius %g", ErrMalformedQuery, radius)
	}

	pairs := nums[3:]
	points := make([]profile.Point, len(pairs)/2)
	for i := range points {
		points[i] = profile.Point{S: pairs[2*i], Z: pairs[2*i+1]}
	}

	target, err := profile.New(points)
	if err != nil {
		return Query{}, fmt.Errorf("%w: %v", ErrMalformedQuery, err)
	}

	return Query{CenterX: cx, CenterY: cy, Radius: radius, Target: target}, nil
}

// ReadBatch reads the batch protocol header (an integer count N) and
// the following N query lines from r.
func ReadBatch(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("%w: reading count: %v", ErrMalformedQuery, err)
		}
		return nil, fmt.Errorf("%w: missing query count line", ErrMalformedQuery)
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: invalid query count %q", ErrMalformedQuery, scanner.Text())
	}

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("%w: reading query %d: %v", ErrMalformedQuery, i, err)
			}
			return nil, fmt.Errorf("%w: expected %d queries, got %d", ErrMalformedQuery, n, i)
		}
		lines = append(lines, scanner.Text())
	}
	return lines, nil
}

// FormatRoute renders a successful result line: "start_fraction
// end_fraction edge_id_1 edge_id_2 ...".
func FormatRoute(startFraction, endFraction float64, edgeIDs []int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%g %g", startFraction, endFraction)
	for _, id := range edgeIDs {
		fmt.Fprintf(&b, " %d", id)
	}
	return b.String()
}

// FormatNone renders the "no route found" result line.
func FormatNone() string { return "NONE" }
