package reports

import (
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

// GetDateRange returns the first and last business date of the preset or custom range.
// startStr/endStr expected in "2006-01-02" format when dateRange == DateRangeCustom.
func GetDateRange(now time.Time, dateRange, startStr, endStr string) (string, string, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch dateRange {
	case DateRangeDaily:
		return today.Format(dateLayout), today.Format(dateLayout), nil
	case DateRangeWeekly:
		// last 7 days (including today)
		return today.AddDate(0, 0, -6).Format(dateLayout), today.Format(dateLayout), nil
	case DateRangeMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start.Format(dateLayout), start.AddDate(0, 1, -1).Format(dateLayout), nil
	case DateRangeYearly:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()).Format(dateLayout),
			time.Date(now.Year(), 12, 31, 0, 0, 0, 0, now.Location()).Format(dateLayout), nil
	case DateRangeCustom:
		if startStr == "" || endStr == "" {
			return "", "", errors.New("start_date and end_date required for custom range")
		}
		start, err := time.Parse(dateLayout, startStr)
		if err != nil {
			return "", "", err
		}
		end, err := time.Parse(dateLayout, endStr)
		if err != nil {
			return "", "", err
		}
		if start.After(end) {
			return "", "", errors.New("start_date must be before end_date")
		}
		return startStr, endStr, nil
	default:
		// default to last 7 days
		return GetDateRange(now, DateRangeWeekly, "", "")
	}
}
