// Package sqlrepos implements the repositories on top of sqlx. Queries use "?" bindvars and are rebound per driver.
package sqlrepos

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing timestamp %q", s)
	}
	return t.UTC(), nil
}

func formatNullTime(t time.Time) null.String {
	if t.IsZero() {
		return null.String{}
	}
	return null.StringFrom(formatTime(t))
}

func parseNullTime(s null.String) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return parseTime(s.String)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
