package recorder

import (
	"fmt"
	"sort"
	"time"

	"github.com/kazari/kazarid/internal/models"
)

// streakLookback bounds how far back streak calculation scans the log.
const streakLookback = 366 * 24 * time.Hour

// Stats builds an aggregate report for the given period from the session
// log. It is a pure read; nothing derived is ever stored.
func (r *Recorder) Stats(periodType string) (*models.Stats, error) {
	period, err := getPeriod(periodType)
	if err != nil {
		return nil, err
	}

	summaries, err := r.repo.PhaseTotalsSince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get phase totals: %w", err)
	}

	var totalSeconds int64
	for i := range summaries {
		summaries[i].TotalMinutes = float64(summaries[i].TotalSeconds) / 60.0
		summaries[i].TotalHours = float64(summaries[i].TotalSeconds) / 3600.0
		totalSeconds += summaries[i].TotalSeconds
	}

	if totalSeconds > 0 {
		for i := range summaries {
			summaries[i].Percentage = (float64(summaries[i].TotalSeconds) / float64(totalSeconds)) * 100.0
		}
	}

	current, best, err := r.streaks(time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to compute streaks: %w", err)
	}

	return &models.Stats{
		Period:        *period,
		Phases:        summaries,
		TotalSeconds:  totalSeconds,
		TotalMinutes:  float64(totalSeconds) / 60.0,
		TotalHours:    float64(totalSeconds) / 3600.0,
		CurrentStreak: current,
		BestStreak:    best,
		GeneratedAt:   time.Now(),
	}, nil
}

// streaks counts consecutive calendar days with at least one completed
// focus session. The current streak survives an empty today: a day is
// only broken once it is fully over.
func (r *Recorder) streaks(now time.Time) (current, best int, err error) {
	sessions, err := r.repo.CompletedFocusSince(now.Add(-streakLookback))
	if err != nil {
		return 0, 0, err
	}
	if len(sessions) == 0 {
		return 0, 0, nil
	}

	seen := make(map[string]bool, len(sessions))
	var days []time.Time
	for _, s := range sessions {
		day := startOfDay(s.StartedAt.Local())
		key := day.Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best = 1
	run := 1
	for i := 1; i < len(days); i++ {
		// AddDate, not 24h arithmetic: calendar days survive DST shifts.
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}

	today := startOfDay(now.Local())
	last := days[len(days)-1]
	if last.Equal(today) || last.AddDate(0, 0, 1).Equal(today) {
		current = run
	}
	return current, best, nil
}

// getPeriod calculates the time range for a report.
func getPeriod(periodType string) (*models.StatsPeriod, error) {
	now := time.Now()
	var start, end time.Time

	switch periodType {
	case "day", "today", "":
		start = startOfDay(now)
		end = start.Add(24 * time.Hour)
		periodType = "day"

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = startOfDay(now).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	case "all":
		start = time.Time{}
		end = now

	default:
		return nil, fmt.Errorf("unknown period type: %s (use day, week, month, or all)", periodType)
	}

	return &models.StatsPeriod{Start: start, End: end, Type: periodType}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
