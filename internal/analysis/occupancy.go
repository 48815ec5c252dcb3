package analysis

import (
	"strconv"
	"strings"
	"time"

	"github.com/cmcnador-art/cmc-timetable/internal/layout"
)

// frenchDays indexes time.Weekday (Sunday = 0) to the display day names used
// in slots. Sunday never matches a slot: the timetables run Monday-Saturday.
var frenchDays = [7]string{
	"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi",
}

// occupancy reports 100 when any slot is running at ref, else 0. A slot runs
// for the configured session length from its declared start, half-open:
// [start, start+length). The slot's declared end time plays no part.
func (p *Pipeline) occupancy(slots []layout.Slot, ref time.Time) int {
	day := frenchDays[ref.Weekday()]
	minutes := ref.Hour()*60 + ref.Minute()
	for _, s := range slots {
		if s.Day != day {
			continue
		}
		start, ok := startMinutes(s.Time)
		if !ok {
			continue
		}
		if minutes >= start && minutes < start+p.sessionMin {
			return 100
		}
	}
	return 0
}

// startMinutes parses the start of a display range like "08:30 - 11:00" into
// minutes of day.
func startMinutes(timeRange string) (int, bool) {
	startStr, _, _ := strings.Cut(timeRange, " - ")
	hs, ms, ok := strings.Cut(strings.TrimSpace(startStr), ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}
