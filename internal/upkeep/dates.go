package upkeep

import (
	"strings"
	"time"

	"upkeep/internal/model"
)

// DMYDate is the day-month-year layout operators type and read.
const DMYDate = "02-01-2006"

// ParseDate accepts YYYY-MM-DD or DD-MM-YYYY and returns the calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ValidationError{Field: "date", Reason: "required"}
	}
	for _, layout := range []string{model.ISODate, DMYDate} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD or DD-MM-YYYY, got " + s}
}

// DMYToISO converts "DD-MM-YYYY" to "YYYY-MM-DD".
func DMYToISO(s string) (string, error) {
	d, err := time.Parse(DMYDate, s)
	if err != nil {
		return "", &ValidationError{Field: "date", Reason: "expected DD-MM-YYYY, got " + s}
	}
	return d.Format(model.ISODate), nil
}

// ISOToDMY converts "YYYY-MM-DD" to "DD-MM-YYYY".
func ISOToDMY(s string) (string, error) {
	d, err := time.Parse(model.ISODate, s)
	if err != nil {
		return "", &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD, got " + s}
	}
	return d.Format(DMYDate), nil
}
