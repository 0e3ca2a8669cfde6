package live

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidRecord marks a live record that cannot be reconciled.
var ErrInvalidRecord = errors.New("live: invalid record")

// Record is one row of the live feed.
type Record struct {
	Time       TimeCode            `json:"time"`
	Price      decimal.NullDecimal `json:"now_prc"`
	NP1        decimal.NullDecimal `json:"np1"`
	NP2        decimal.NullDecimal `json:"np2"`
	Profit     decimal.NullDecimal `json:"prf"`
	RealProfit decimal.NullDecimal `json:"real_prf"`
	Type1      string              `json:"type1"`
	Type2      string              `json:"type2"`
}

func (r Record) validate() error {
	switch {
	case r.Time == "":
		return errMissing("time")
	case !r.Price.Valid:
		return errMissing("now_prc")
	case !r.NP1.Valid:
		return errMissing("np1")
	case !r.NP2.Valid:
		return errMissing("np2")
	case !r.Profit.Valid:
		return errMissing("prf")
	}
	return nil
}

func errMissing(field string) error {
	return fmt.Errorf("missing %s", field)
}

// TimeCode is an HHMMSS clock reading; the feed sends it as a number or string
// and drops leading zeros.
type TimeCode string

// UnmarshalJSON accepts both 93015 and "093015".
func (c *TimeCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = TimeCode(strings.TrimSpace(s))
		return nil
	}
	*c = TimeCode(data)
	return nil
}

// On places the clock reading on the calendar date of day, in day's location.
func (c TimeCode) On(day time.Time) (time.Time, error) {
	s := string(c)
	if s == "" {
		return time.Time{}, errMissing("time")
	}
	if len(s) > 6 {
		return time.Time{}, fmt.Errorf("time code %q longer than 6 digits", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("time code %q is not numeric", s)
		}
	}
	s = strings.Repeat("0", 6-len(s)) + s

	hour, _ := strconv.Atoi(s[0:2])
	minute, _ := strconv.Atoi(s[2:4])
	second, _ := strconv.Atoi(s[4:6])
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("time code %q out of range", s)
	}

	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, second, 0, day.Location()), nil
}
