package models

import "time"

const (
	monthLayout = "2006-01"
	dateLayout  = "2006-01-02"
)

func ValidMonth(month string) bool {
	_, err := time.Parse(monthLayout, month)
	return err == nil
}

// MonthOf returns the YYYY-MM month a date belongs to.
func MonthOf(date time.Time) string {
	return date.Format(monthLayout)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
