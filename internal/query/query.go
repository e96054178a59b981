// Package query turns a request's query string into an executable
// specification: filter predicates, sort order, projection and pagination.
// Building is purely functional; rendering produces SQL fragments against a
// per-resource column allowlist so client input never reaches the statement
// text directly.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"tour-booking-api/pkg/apierror"
)

// Reserved control keys, excluded from the filter pass.
const (
	keyPage   = "page"
	keySort   = "sort"
	keyLimit  = "limit"
	keyFields = "fields"
)

const (
	defaultLimit    = 100
	defaultMaxLimit = 500
)

type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpGt  Op = ">"
	OpLte Op = "<="
	OpLt  Op = "<"
)

// operator suffixes, longest first so _gte wins over _gt.
var suffixOps = []struct {
	suffix string
	op     Op
}{
	{"_gte", OpGte},
	{"_lte", OpLte},
	{"_gt", OpGt},
	{"_lt", OpLt},
}

type Filter struct {
	Field string
	Op    Op
	Value any
}

type SortKey struct {
	Field string
	Desc  bool
}

// Scope is an ambient equality filter supplied by code, not by the client.
// Keys are trusted column names.
type Scope map[string]any

// Options describes what a resource allows the client to touch.
type Options struct {
	// Filterable lists the fields usable in filter and sort passes.
	Filterable map[string]bool
	// Columns is the full projection universe, in select order.
	Columns []string
	// Hidden columns are excluded from the default projection but may be
	// requested explicitly via fields=.
	Hidden []string
	// DefaultSort applies when no sort parameter is present. Empty means
	// created_at descending.
	DefaultSort []SortKey
	// MaxLimit caps the page size to keep a hostile limit= from forcing an
	// unbounded scan. Zero means the package default.
	MaxLimit int
}

// Spec is the parsed, executable form of the client's query parameters.
type Spec struct {
	Filters []Filter
	Sort    []SortKey
	Fields  []string
	Page    int
	Limit   int
	Offset  int

	columns []string
}

// Parse builds a Spec from raw query values. It performs no I/O and returns
// an operational 400 for unknown fields or malformed control values.
func Parse(values url.Values, opts Options) (*Spec, error) {
	s := &Spec{}

	if err := s.filterPass(values, opts); err != nil {
		return nil, err
	}
	if err := s.sortPass(values.Get(keySort), opts); err != nil {
		return nil, err
	}
	if err := s.projectionPass(values.Get(keyFields), opts); err != nil {
		return nil, err
	}
	if err := s.paginationPass(values.Get(keyPage), values.Get(keyLimit), opts); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Spec) filterPass(values url.Values, opts Options) error {
	for key, vals := range values {
		switch key {
		case keyPage, keySort, keyLimit, keyFields:
			continue
		}
		if len(vals) == 0 {
			continue
		}

		field, op := splitOperator(key)
		if !opts.Filterable[field] {
			return apierror.Newf(400, "cannot filter on field %q", field)
		}
		s.Filters = append(s.Filters, Filter{Field: field, Op: op, Value: coerce(vals[0])})
	}
	return nil
}

func (s *Spec) sortPass(raw string, opts Options) error {
	if strings.TrimSpace(raw) == "" {
		s.Sort = opts.DefaultSort
		if len(s.Sort) == 0 {
			s.Sort = []SortKey{{Field: "created_at", Desc: true}}
		}
		return nil
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := SortKey{Field: part}
		if strings.HasPrefix(part, "-") {
			key = SortKey{Field: part[1:], Desc: true}
		}
		if !opts.Filterable[key.Field] {
			return apierror.Newf(400, "cannot sort on field %q", key.Field)
		}
		s.Sort = append(s.Sort, key)
	}
	return nil
}

func (s *Spec) projectionPass(raw string, opts Options) error {
	if strings.TrimSpace(raw) == "" {
		hidden := make(map[string]bool, len(opts.Hidden))
		for _, h := range opts.Hidden {
			hidden[h] = true
		}
		for _, col := range opts.Columns {
			if !hidden[col] {
				s.columns = append(s.columns, col)
			}
		}
		return nil
	}

	universe := make(map[string]bool, len(opts.Columns))
	for _, col := range opts.Columns {
		universe[col] = true
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !universe[part] {
			return apierror.Newf(400, "unknown field %q", part)
		}
		s.Fields = append(s.Fields, part)
		s.columns = append(s.columns, part)
	}
	return nil
}

func (s *Spec) paginationPass(rawPage, rawLimit string, opts Options) error {
	maxLimit := opts.MaxLimit
	if maxLimit <= 0 {
		maxLimit = defaultMaxLimit
	}

	s.Page = 1
	if rawPage != "" {
		page, err := strconv.Atoi(rawPage)
		if err != nil || page < 1 {
			return apierror.Newf(400, "page must be a positive integer, got %q", rawPage)
		}
		s.Page = page
	}

	s.Limit = defaultLimit
	if rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit < 1 {
			return apierror.Newf(400, "limit must be a positive integer, got %q", rawLimit)
		}
		s.Limit = limit
	}
	if s.Limit > maxLimit {
		s.Limit = maxLimit
	}

	s.Offset = (s.Page - 1) * s.Limit
	return nil
}

// Columns is the resolved projection, in select order.
func (s *Spec) Columns() []string {
	return s.columns
}

// Where renders the combined scope and filter predicates as a SQL fragment
// starting with " WHERE", or returns an empty string when there is nothing to
// filter on. Placeholder numbering starts at startArg.
func (s *Spec) Where(scope Scope, startArg int) (string, []any) {
	var (
		conds []string
		args  []any
		n     = startArg
	)

	for _, col := range scopeKeys(scope) {
		conds = append(conds, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, scope[col])
		n++
	}
	for _, f := range s.Filters {
		conds = append(conds, fmt.Sprintf("%s %s $%d", f.Field, f.Op, n))
		args = append(args, f.Value)
		n++
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// OrderBy renders the sort keys with id as a stable tiebreaker.
func (s *Spec) OrderBy() string {
	var parts []string
	tiebreak := true
	for _, key := range s.Sort {
		dir := ""
		if key.Desc {
			dir = " DESC"
		}
		parts = append(parts, key.Field+dir)
		if key.Field == "id" {
			tiebreak = false
		}
	}
	if tiebreak {
		parts = append(parts, "id")
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// LimitOffset renders pagination. Page and limit were validated at parse
// time, so inlining is safe.
func (s *Spec) LimitOffset() string {
	return fmt.Sprintf(" LIMIT %d OFFSET %d", s.Limit, s.Offset)
}

func splitOperator(key string) (string, Op) {
	for _, so := range suffixOps {
		if strings.HasSuffix(key, so.suffix) && len(key) > len(so.suffix) {
			return key[:len(key)-len(so.suffix)], so.op
		}
	}
	return key, OpEq
}

// coerce turns numeric-looking values into float64 so comparisons against
// numeric columns use numeric semantics.
func coerce(raw string) any {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// scopeKeys returns scope columns in a deterministic order.
func scopeKeys(scope Scope) []string {
	keys := make([]string, 0, len(scope))
	for k := range scope {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
