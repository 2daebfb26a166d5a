package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no reading has the requested id.
	ErrNotFound = errors.New("glucose level not found")
	// ErrInvalidSortKey is returned for a sort field that is not a reading attribute.
	ErrInvalidSortKey = errors.New("invalid sort key")
	// ErrInvalidSortOrder is returned for a sort order other than asc or desc.
	ErrInvalidSortOrder = errors.New("invalid sort order")
)

// SortKey names a reading attribute results can be ordered by.
type SortKey string

const (
	SortByID           SortKey = "id"
	SortByUserID       SortKey = "user_id"
	SortByDevice       SortKey = "device"
	SortBySerialNumber SortKey = "serial_number"
	SortByTimestamp    SortKey = "timestamp"
	SortByGlucoseValue SortKey = "glucose_value"
)

// sortColumns is the closed mapping from sort key to column name.
var sortColumns = map[SortKey]string{
	SortByID:           "id",
	SortByUserID:       "user_id",
	SortByDevice:       "device",
	SortBySerialNumber: "serial_number",
	SortByTimestamp:    "timestamp",
	SortByGlucoseValue: "glucose_value",
}

// SortKeys lists the accepted sort keys in a stable order.
func SortKeys() []SortKey {
	return []SortKey{SortByID, SortByUserID, SortByDevice, SortBySerialNumber, SortByTimestamp, SortByGlucoseValue}
}

// ParseSortKey validates s against the known reading attributes.
func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(strings.TrimSpace(s))
	if _, ok := sortColumns[key]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
	}
	return key, nil
}

// SortOrder is the direction of an ordering.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder accepts "asc" or "desc" in any case.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSortOrder, s)
}

// Query selects one user's readings. Nil bounds are not applied; a zero
// SortBy or SortOrder means timestamp ascending; Limit <= 0 means no limit.
type Query struct {
	UserID    string
	Start     *time.Time
	Stop      *time.Time
	SortBy    SortKey
	SortOrder SortOrder
	Limit     int
	Offset    int
}
