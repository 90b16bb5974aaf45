package cypher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const nanosPerSecond = 1000000000

var (
	datePattern     = `([+-]?\d{4,})-(\d{2})-(\d{2})`
	timePattern     = `(\d{2}):(\d{2})(?::(\d{2})(?:\.(\d{1,9}))?)?`
	offsetPattern   = `(Z|[+-]\d{2}:\d{2}(?::\d{2})?)`
	dateRegex       = regexp.MustCompile(`^` + datePattern + `$`)
	localTimeRegex  = regexp.MustCompile(`^` + timePattern + `$`)
	timeRegex       = regexp.MustCompile(`^` + timePattern + offsetPattern + `$`)
	dateTimeRegex   = regexp.MustCompile(`^` + datePattern + `T` + timePattern + offsetPattern + `?(?:\[([^\]]+)\])?$`)
	durationRegex   = regexp.MustCompile(`^(-)?P(?:(-?\d+)Y)?(?:(-?\d+)M)?(?:(-?\d+)W)?(?:(-?\d+)D)?(?:T(?:(-?\d+)H)?(?:(-?\d+)M)?(?:(-)?(\d+)(?:\.(\d{1,9}))?S)?)?$`)
	offsetPartRegex = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})(?::(\d{2}))?$`)
)

func formatYear(y int) string {
	switch {
	case y < 0:
		return fmt.Sprintf("-%04d", -y)
	case y > 9999:
		return fmt.Sprintf("+%d", y)
	default:
		return fmt.Sprintf("%04d", y)
	}
}

func (d Date) isoString() string {
	return fmt.Sprintf("%s-%02d-%02d", formatYear(d.Year), d.Month, d.Day)
}

func (t LocalTime) isoString() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond != 0 {
		s += "." + strings.TrimRight(fmt.Sprintf("%09d", t.Nanosecond), "0")
	}
	return s
}

func formatOffset(seconds int) string {
	if seconds == 0 {
		return "Z"
	}
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	s := fmt.Sprintf("%s%02d:%02d", sign, seconds/3600, (seconds/60)%60)
	if seconds%60 != 0 {
		s += fmt.Sprintf(":%02d", seconds%60)
	}
	return s
}

func (t Time) isoString() string {
	return t.LocalTime.isoString() + formatOffset(t.UTCOffset)
}

func (t LocalDateTime) isoString() string {
	return t.Date.isoString() + "T" + t.LocalTime.isoString()
}

func (t DateTime) isoString() string {
	s := t.Date.isoString() + "T" + t.LocalTime.isoString()
	if t.UTCOffset != nil {
		s += formatOffset(*t.UTCOffset)
	}
	if t.Zone != "" {
		s += "[" + t.Zone + "]"
	}
	return s
}

func (d Duration) isoString() string {
	s := fmt.Sprintf("P%dM%dDT", d.Months, d.Days)
	switch {
	case d.Nanoseconds == 0:
		s += fmt.Sprintf("%dS", d.Seconds)
	case d.Seconds < 0:
		whole := -(d.Seconds + 1)
		frac := nanosPerSecond - d.Nanoseconds
		s += fmt.Sprintf("-%d.%sS", whole, strings.TrimRight(fmt.Sprintf("%09d", frac), "0"))
	default:
		s += fmt.Sprintf("%d.%sS", d.Seconds, strings.TrimRight(fmt.Sprintf("%09d", d.Nanoseconds), "0"))
	}
	return s
}

// ParseTemporal decodes the payload of the T sigil. The variant is chosen by the shape of the
// string: a duration starts with P, a date-time has a T separator, a time has an offset or not.
func ParseTemporal(s string) (Value, error) {
	if strings.HasPrefix(s, "P") || strings.HasPrefix(s, "-P") {
		return parseDuration(s)
	}
	if m := dateRegex.FindStringSubmatch(s); m != nil {
		return dateFromMatch(m[1:4])
	}
	if m := localTimeRegex.FindStringSubmatch(s); m != nil {
		return localTimeFromMatch(m[1:5])
	}
	if m := timeRegex.FindStringSubmatch(s); m != nil {
		lt, err := localTimeFromMatch(m[1:5])
		if err != nil {
			return nil, err
		}
		offset, err := parseOffset(m[5])
		if err != nil {
			return nil, err
		}
		return Time{LocalTime: lt, UTCOffset: offset}, nil
	}
	if m := dateTimeRegex.FindStringSubmatch(s); m != nil {
		d, err := dateFromMatch(m[1:4])
		if err != nil {
			return nil, err
		}
		lt, err := localTimeFromMatch(m[4:8])
		if err != nil {
			return nil, err
		}
		if m[8] == "" && m[9] == "" {
			return LocalDateTime{Date: d, LocalTime: lt}, nil
		}
		dt := DateTime{Date: d, LocalTime: lt, Zone: m[9]}
		if m[8] != "" {
			offset, err := parseOffset(m[8])
			if err != nil {
				return nil, err
			}
			dt.UTCOffset = &offset
		}
		return dt, nil
	}
	return nil, fmt.Errorf("not a temporal value: %q", s)
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseFraction(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi((s + "000000000")[:9])
	return n
}

func dateFromMatch(m []string) (Date, error) {
	y, err := strconv.Atoi(strings.TrimPrefix(m[0], "+"))
	if err != nil {
		return Date{}, err
	}
	mo, _ := strconv.Atoi(m[1])
	d, _ := strconv.Atoi(m[2])
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return Date{}, fmt.Errorf("invalid date %s-%s-%s", m[0], m[1], m[2])
	}
	return Date{Year: y, Month: mo, Day: d}, nil
}

func localTimeFromMatch(m []string) (LocalTime, error) {
	h, _ := strconv.Atoi(m[0])
	mi, _ := strconv.Atoi(m[1])
	sec, err := atoiOrZero(m[2])
	if err != nil {
		return LocalTime{}, err
	}
	if h > 23 || mi > 59 || sec > 59 {
		return LocalTime{}, fmt.Errorf("invalid time %s:%s:%s", m[0], m[1], m[2])
	}
	return LocalTime{Hour: h, Minute: mi, Second: sec, Nanosecond: parseFraction(m[3])}, nil
}

func parseOffset(s string) (int, error) {
	if s == "Z" {
		return 0, nil
	}
	m := offsetPartRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid UTC offset %q", s)
	}
	h, _ := strconv.Atoi(m[2])
	mi, _ := strconv.Atoi(m[3])
	sec, _ := atoiOrZero(m[4])
	total := h*3600 + mi*60 + sec
	if m[1] == "-" {
		total = -total
	}
	return total, nil
}

func parseDuration(s string) (Duration, error) {
	m := durationRegex.FindStringSubmatch(s)
	if m == nil {
		return Duration{}, fmt.Errorf("invalid duration %q", s)
	}
	var parts [6]int64
	for i, group := range []string{m[2], m[3], m[4], m[5], m[6], m[7]} {
		if group == "" {
			continue
		}
		n, err := strconv.ParseInt(group, 10, 64)
		if err != nil {
			return Duration{}, err
		}
		parts[i] = n
	}
	years, months, weeks, days, hours, minutes := parts[0], parts[1], parts[2], parts[3], parts[4], parts[5]

	var seconds, nanos int64
	if m[9] != "" {
		n, err := strconv.ParseInt(m[9], 10, 64)
		if err != nil {
			return Duration{}, err
		}
		seconds = n
		nanos = int64(parseFraction(m[10]))
		if m[8] == "-" {
			if nanos > 0 {
				seconds = -seconds - 1
				nanos = nanosPerSecond - nanos
			} else {
				seconds = -seconds
			}
		}
	}
	d := Duration{
		Months:      years*12 + months,
		Days:        weeks*7 + days,
		Seconds:     hours*3600 + minutes*60 + seconds,
		Nanoseconds: nanos,
	}
	if m[1] == "-" {
		d = d.negate()
	}
	return d, nil
}

func (d Duration) negate() Duration {
	n := Duration{Months: -d.Months, Days: -d.Days, Seconds: -d.Seconds}
	if d.Nanoseconds != 0 {
		n.Seconds--
		n.Nanoseconds = nanosPerSecond - d.Nanoseconds
	}
	return n
}
