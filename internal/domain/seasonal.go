package domain

import "time"

type Season string

const (
	SeasonSpring  Season = "spring"
	SeasonSummer  Season = "summer"
	SeasonAutumn  Season = "autumn"
	SeasonWinter  Season = "winter"
	SeasonHoliday Season = "holiday"
	SeasonCustom  Season = "custom"
)

// SeasonalWindow is an editorially curated set of products active for a date
// range. The engine only ever reads these.
type SeasonalWindow struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Season     Season    `json:"season"`
	ProductIDs []int64   `json:"product_ids"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Active     bool      `json:"active"`
	Priority   int       `json:"priority"`
}

// Contains reports whether the window is active and its [start, end] interval
// covers the given instant.
func (w SeasonalWindow) Contains(now time.Time) bool {
	return w.Active && !now.Before(w.StartDate) && !now.After(w.EndDate)
}
