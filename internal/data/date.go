package data

import (
	"encoding/json"
	"time"
)

// DateLayout is dd-MM-yyyy
const DateLayout string = "02-01-2006"

// Date is a calendar date (UTC) that's serialized as dd-MM-yyyy
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) *Date {
	return &Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateFromTime truncates t to its calendar date
func DateFromTime(t time.Time) *Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(bytes []byte) error {
	var s string

	if err := json.Unmarshal(bytes, &s); err != nil {
		return err
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
