package geo

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/stwalsh4118/pfman/internal/logger"
)

var (
	// ErrMissingCriteria is returned when a lookup is called without any search criteria.
	ErrMissingCriteria = errors.New("at least one search criterion must be provided")
	// ErrSubdivisionNotFound is returned by Level for an unknown code.
	ErrSubdivisionNotFound = errors.New("subdivision not found")
)

// Resolver answers country and subdivision lookups over a Dataset.
// It never mutates its data and is safe for concurrent use.
type Resolver struct {
	countries    []Country
	subdivisions []Subdivision
	// levels is keyed by upper-cased subdivision code.
	levels map[string]int
	log    *logger.Logger
}

// NewResolver indexes ds. Every parent code must exist and the parent
// links must not form a cycle.
func NewResolver(ds *Dataset, log *logger.Logger) (*Resolver, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrInvalidDataset)
	}

	parents := make(map[string]string, len(ds.Subdivisions))
	for _, s := range ds.Subdivisions {
		parents[strings.ToUpper(s.Code)] = strings.ToUpper(s.ParentCode)
	}

	levels := make(map[string]int, len(ds.Subdivisions))
	for code := range parents {
		level, err := walkLevel(code, parents)
		if err != nil {
			return nil, err
		}
		levels[code] = level
	}

	return &Resolver{
		countries:    append([]Country(nil), ds.Countries...),
		subdivisions: append([]Subdivision(nil), ds.Subdivisions...),
		levels:       levels,
		log:          log,
	}, nil
}

// NewResolverFromDir loads reference data from dir, or the embedded copy
// when dir is empty, and indexes it.
func NewResolverFromDir(dir string, log *logger.Logger) (*Resolver, error) {
	var (
		ds  *Dataset
		err error
	)
	if dir != "" {
		ds, err = LoadDataset(os.DirFS(dir))
	} else {
		ds, err = DefaultDataset()
	}
	if err != nil {
		return nil, err
	}
	return NewResolver(ds, log)
}

// walkLevel follows parent links from code up to a root, which is level 1.
func walkLevel(code string, parents map[string]string) (int, error) {
	level := 1
	seen := map[string]bool{code: true}
	for {
		parent, ok := parents[code]
		if !ok {
			return 0, fmt.Errorf("%w: parent %s", ErrInvalidDataset, code)
		}
		if parent == "" {
			return level, nil
		}
		if seen[parent] {
			return 0, fmt.Errorf("%w: parent cycle through %s", ErrInvalidDataset, parent)
		}
		seen[parent] = true
		code = parent
		level++
	}
}

// Countries returns every country in dataset order.
func (r *Resolver) Countries() []Country {
	return append([]Country(nil), r.countries...)
}

// GetCountry returns the first country, in dataset order, matched by any
// populated field of q. Comparisons ignore case and numeric codes compare
// by value, so "4", "004" and 4 all select Afghanistan.
// It returns nil when nothing matches.
func (r *Resolver) GetCountry(q CountryQuery) (*Country, error) {
	if q.empty() {
		return nil, ErrMissingCriteria
	}

	qNumeric, qIsNumeric := canonicalNumeric(q.Q)
	codeNumeric, codeIsNumeric := canonicalNumeric(q.Code)
	numeric := ""
	if q.Numeric != 0 {
		numeric = fmt.Sprintf("%03d", q.Numeric)
	}

	for _, c := range r.countries {
		code := c.NumericCode()
		matched := q.Q != "" && (strings.EqualFold(q.Q, c.Name) ||
			(c.OfficialName != "" && strings.EqualFold(q.Q, c.OfficialName)) ||
			strings.EqualFold(q.Q, c.Alpha2) ||
			strings.EqualFold(q.Q, c.Alpha3) ||
			(qIsNumeric && qNumeric == code))
		matched = matched || q.Name != "" && (strings.EqualFold(q.Name, c.Name) ||
			(c.OfficialName != "" && strings.EqualFold(q.Name, c.OfficialName)))
		matched = matched || q.Code != "" && (strings.EqualFold(q.Code, c.Alpha2) ||
			strings.EqualFold(q.Code, c.Alpha3) ||
			(codeIsNumeric && codeNumeric == code))
		matched = matched || numeric != "" && numeric == code

		if matched {
			found := c
			return &found, nil
		}
	}

	return nil, nil
}

// canonicalNumeric reports whether s is a base-10 integer in the ISO numeric
// range and, if so, returns it zero-padded to three digits.
func canonicalNumeric(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 999 {
		return "", false
	}
	return fmt.Sprintf("%03d", n), true
}

// GetSubdivisions returns every subdivision matching q, in dataset order.
//
// Q matches the name, the full code or the code suffix ("CA" matches
// "US-CA"). Name matches the name. Code matches the full code or suffix.
// With none of Q, Name or Code set, every subdivision passes the text test.
// ParentCode accepts either the full parent code or, together with
// CountryCode, its suffix.
func (r *Resolver) GetSubdivisions(q SubdivisionQuery) ([]Subdivision, error) {
	if q.empty() {
		return nil, ErrMissingCriteria
	}

	matches := make([]Subdivision, 0)
	for _, s := range r.subdivisions {
		if !matchesText(q, s) || !matchesParent(q, s) {
			continue
		}
		if q.CountryCode != "" && !strings.EqualFold(q.CountryCode, s.CountryCode) {
			continue
		}
		if q.Level != 0 && r.levels[strings.ToUpper(s.Code)] != q.Level {
			continue
		}
		matches = append(matches, s)
	}

	return matches, nil
}

func matchesText(q SubdivisionQuery, s Subdivision) bool {
	if !q.hasText() {
		return true
	}
	if q.Q != "" && (strings.EqualFold(q.Q, s.Name) || matchesCode(q.Q, s.Code)) {
		return true
	}
	if q.Name != "" && strings.EqualFold(q.Name, s.Name) {
		return true
	}
	return q.Code != "" && matchesCode(q.Code, s.Code)
}

func matchesCode(needle, code string) bool {
	return strings.EqualFold(needle, code) ||
		strings.HasSuffix(strings.ToLower(code), "-"+strings.ToLower(needle))
}

func matchesParent(q SubdivisionQuery, s Subdivision) bool {
	if q.ParentCode == "" {
		return true
	}
	if s.ParentCode == "" {
		return false
	}
	if strings.EqualFold(s.ParentCode, q.ParentCode) {
		return true
	}
	return q.CountryCode != "" && strings.EqualFold(s.ParentCode, q.CountryCode+"-"+q.ParentCode)
}

// GetSubdivision returns the single subdivision matching q. One of Q, Name
// or Code is required. Zero matches yield nil. Several matches also yield
// nil and log a warning.
func (r *Resolver) GetSubdivision(q SubdivisionQuery) (*Subdivision, error) {
	if !q.hasText() {
		return nil, ErrMissingCriteria
	}

	matches, err := r.GetSubdivisions(q)
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		found := matches[0]
		return &found, nil
	}

	if r.log != nil {
		codes := make([]string, 0, len(matches))
		for _, m := range matches {
			codes = append(codes, m.Code)
		}
		r.log.Warn("Multiple matches found for subdivision search", map[string]interface{}{
			"q":                 q.Q,
			"name":              q.Name,
			"code":              q.Code,
			"parent_code":       q.ParentCode,
			"country_code":      q.CountryCode,
			"subdivision_level": q.Level,
			"matches":           codes,
		})
	}
	return nil, nil
}

// GetState is GetSubdivision restricted to top-level subdivisions.
func (r *Resolver) GetState(q SubdivisionQuery) (*Subdivision, error) {
	if !q.hasText() {
		return nil, ErrMissingCriteria
	}
	q.Level = 1
	return r.GetSubdivision(q)
}

// Level returns the depth of code in the subdivision tree, 1 for a root.
func (r *Resolver) Level(code string) (int, error) {
	level, ok := r.levels[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSubdivisionNotFound, code)
	}
	return level, nil
}
