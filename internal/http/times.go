package http

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	minuteLayout = "2006-01-02T15:04"
	dateLayout   = "2006-01-02"
)

var errInvalidTime = errors.New("invalid time value")

// timeCodec converts between wire strings and instants in the configured
// location. Instants are exchanged at minute precision, dates as calendar days.
type timeCodec struct {
	loc *time.Location
}

func newTimeCodec(loc *time.Location) timeCodec {
	if loc == nil {
		loc = time.UTC
	}
	return timeCodec{loc: loc}
}

// parseInstant accepts "2006-01-02T15:04" in the configured location or a
// full RFC 3339 timestamp.
func (c timeCodec) parseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.Wrap(errInvalidTime, "empty")
	}
	if t, err := time.ParseInLocation(minuteLayout, value, c.loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.Wrapf(errInvalidTime, "%q", value)
	}
	return t.In(c.loc), nil
}

func (c timeCodec) formatInstant(t time.Time) string {
	return t.In(c.loc).Format(minuteLayout)
}

// parseDate parses an optional calendar date. Empty input yields nil.
func (c timeCodec) parseDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(*value), c.loc)
	if err != nil {
		return nil, errors.Wrapf(errInvalidTime, "%q", *value)
	}
	return &t, nil
}

func (c timeCodec) formatDate(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.In(c.loc).Format(dateLayout)
	return &s
}
