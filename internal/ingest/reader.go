package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/iamhaymc/NewSpace/internal/domain"
)

// Regex for valid subreddit names
var spaceNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{2,21}$`)

// Regex for valid user names
var userNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)

// LoadTargets reads a CSV of "name[,kind]" rows after a header row. kind is
// "space" (the default) or "user". Rows that fail validation are skipped.
func LoadTargets(path string) ([]domain.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTargets(f)
}

func ReadTargets(r io.Reader) ([]domain.Target, error) {
	// Wrap in BOM stripper
	cr := csv.NewReader(stripBOM(r))
	cr.FieldsPerRecord = -1

	var targets []domain.Target
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return targets, err
		}
		line++
		if line == 1 {
			continue // Skip header
		}

		// Validation (Fail-Soft)
		if len(record) == 0 {
			continue
		}
		name := strings.TrimSpace(record[0])
		kind := domain.TargetSpace
		if len(record) > 1 && strings.EqualFold(strings.TrimSpace(record[1]), string(domain.TargetUser)) {
			kind = domain.TargetUser
		}
		if !Valid(domain.Target{Kind: kind, Name: name}) {
			continue
		}
		targets = append(targets, domain.Target{Kind: kind, Name: name})
	}
	return targets, nil
}

// Valid reports whether the target name is acceptable for its kind.
func Valid(t domain.Target) bool {
	if t.Kind == domain.TargetUser {
		return userNameRegex.MatchString(t.Name)
	}
	return spaceNameRegex.MatchString(t.Name)
}

// Merge joins target lists, keeping the first occurrence of each target.
func Merge(lists ...[]domain.Target) []domain.Target {
	seen := make(map[domain.Target]bool)
	var out []domain.Target
	for _, l := range lists {
		for _, t := range l {
			key := domain.Target{Kind: t.Kind, Name: strings.ToLower(t.Name)}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, t)
		}
	}
	return out
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
