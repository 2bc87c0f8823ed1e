package datetime

import (
	"fmt"
	"time"
)

// monthAbbreviations are the short Russian month names shown on period axes.
var monthAbbreviations = [12]string{
	"Янв", "Фев", "Мар", "Апр", "Май", "Июн",
	"Июл", "Авг", "Сен", "Окт", "Ноя", "Дек",
}

// MonthLabel returns the short period label of the month containing t.
func MonthLabel(t time.Time) string {
	return monthAbbreviations[t.Month()-1]
}

// MonthPeriods returns count consecutive month starts beginning at start.
func MonthPeriods(start string, count int) ([]time.Time, error) {
	if count < 0 {
		return nil, fmt.Errorf("invalid period count %d", count)
	}
	first, err := ParseMonth(start)
	if err != nil {
		return nil, fmt.Errorf("invalid period start: %w", err)
	}
	periods := make([]time.Time, count)
	for i := range periods {
		periods[i] = first.AddDate(0, i, 0)
	}
	return periods, nil
}

// UniqueMonthLabel returns MonthLabel, suffixed with the two-digit year when
// withYear is set ("Янв 25").
func UniqueMonthLabel(t time.Time, withYear bool) string {
	if !withYear {
		return MonthLabel(t)
	}
	return fmt.Sprintf("%s %s", MonthLabel(t), t.Format("06"))
}
