package value

import (
	"fmt"
	"time"
)

// DatetimeKind is the flavour of a document timestamp.
type DatetimeKind int

const (
	// KindOffsetDateTime is a full timestamp with a UTC offset.
	KindOffsetDateTime DatetimeKind = iota
	// KindLocalDateTime is a date and time without an offset.
	KindLocalDateTime
	// KindLocalDate is a calendar date.
	KindLocalDate
	// KindLocalTime is a time of day.
	KindLocalTime
)

func (k DatetimeKind) String() string {
	switch k {
	case KindOffsetDateTime:
		return "offset-datetime"
	case KindLocalDateTime:
		return "local-datetime"
	case KindLocalDate:
		return "local-date"
	case KindLocalTime:
		return "local-time"
	default:
		return fmt.Sprintf("datetime-kind(%d)", int(k))
	}
}

// Datetime is a document timestamp.
//
// Local kinds store their wall-clock fields in a time.Time located in UTC;
// the location carries no meaning for them. KindLocalTime uses the zero date.
type Datetime struct {
	Kind DatetimeKind
	Time time.Time
}

func (Datetime) Category() Category { return CategoryDatetime }
func (Datetime) value()             {}

// OffsetDateTime wraps a time.Time as an offset date-time.
func OffsetDateTime(t time.Time) Datetime {
	return Datetime{Kind: KindOffsetDateTime, Time: t}
}

// LocalDateTime builds a local date-time from wall-clock fields.
func LocalDateTime(year int, month time.Month, day, hour, min, sec, nsec int) Datetime {
	return Datetime{Kind: KindLocalDateTime, Time: time.Date(year, month, day, hour, min, sec, nsec, time.UTC)}
}

// LocalDate builds a local date.
func LocalDate(year int, month time.Month, day int) Datetime {
	return Datetime{Kind: KindLocalDate, Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// LocalTime builds a local time of day.
func LocalTime(hour, min, sec, nsec int) Datetime {
	return Datetime{Kind: KindLocalTime, Time: time.Date(0, time.January, 1, hour, min, sec, nsec, time.UTC)}
}

// Layouts print fractional seconds only when present, matching TOML output.
const (
	layoutLocalDateTime = "2006-01-02T15:04:05.999999999"
	layoutLocalDate     = "2006-01-02"
	layoutLocalTime     = "15:04:05.999999999"
)

// String formats the timestamp in TOML syntax, e.g. "1979-05-27T07:32:00".
func (d Datetime) String() string {
	switch d.Kind {
	case KindLocalDateTime:
		return d.Time.Format(layoutLocalDateTime)
	case KindLocalDate:
		return d.Time.Format(layoutLocalDate)
	case KindLocalTime:
		return d.Time.Format(layoutLocalTime)
	default:
		return d.Time.Format(time.RFC3339Nano)
	}
}

// In returns the instant the timestamp denotes, interpreting local kinds in loc.
func (d Datetime) In(loc *time.Location) time.Time {
	if d.Kind == KindOffsetDateTime {
		return d.Time
	}
	t := d.Time
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// Equal reports whether two timestamps have the same kind and instant.
func (d Datetime) Equal(other Datetime) bool {
	return d.Kind == other.Kind && d.Time.Equal(other.Time)
}
