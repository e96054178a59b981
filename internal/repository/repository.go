// Package repository implements the persistence interfaces on PostgreSQL via
// pgx. Document mutation runs through an explicit ordered pipeline of named
// steps (normalize, validate, stamp) instead of implicit hooks.
package repository

import (
	"fmt"
	"math"

	"github.com/go-playground/validator"

	"tour-booking-api/pkg/apierror"
)

var validate = validator.New()

// scanTargets resolves a projection's columns into scan destinations, in
// column order.
func scanTargets(dests map[string]any, cols []string) ([]any, error) {
	out := make([]any, 0, len(cols))
	for _, col := range cols {
		dest, ok := dests[col]
		if !ok {
			return nil, fmt.Errorf("no scan destination for column %q", col)
		}
		out = append(out, dest)
	}
	return out, nil
}

// Patch value converters. JSON numbers arrive as float64; everything else is
// a client error surfaced as an operational 400.

func patchString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", apierror.Newf(400, "field %q must be a string", field)
	}
	return s, nil
}

func patchFloat(field string, v any) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, apierror.Newf(400, "field %q must be a number", field)
	}
	return f, nil
}

func patchInt(field string, v any) (int, error) {
	f, err := patchFloat(field, v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, apierror.Newf(400, "field %q must be an integer", field)
	}
	return int(f), nil
}

func patchStringSlice(field string, v any) ([]string, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, apierror.Newf(400, "field %q must be an array of strings", field)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, apierror.Newf(400, "field %q must be an array of strings", field)
		}
		out = append(out, s)
	}
	return out, nil
}

func patchBool(field string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, apierror.Newf(400, "field %q must be a boolean", field)
	}
	return b, nil
}
