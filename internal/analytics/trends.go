package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
)

const (
	TrendImproving    = "improving"
	TrendDeclining    = "declining"
	TrendStable       = "stable"
	TrendInsufficient = "insufficient_data"
)

// minTrendSessions is the fewest sessions split into halves for a trend.
const minTrendSessions = 4

// trendMargin is how many percentage points the halves must differ by.
const trendMargin = 5.0

type WeekCount struct {
	WeekStart string `json:"weekStart"`
	Sessions  int    `json:"sessions"`
	Completed int    `json:"completed"`
}

type Trends struct {
	Direction             string      `json:"direction"`
	FirstHalfSuccessRate  float64     `json:"firstHalfSuccessRate"`
	SecondHalfSuccessRate float64     `json:"secondHalfSuccessRate"`
	AverageGlucose        *float64    `json:"averageGlucose,omitempty"`
	GlucoseChange         *float64    `json:"glucoseChange,omitempty"`
	Weekly                []WeekCount `json:"weekly"`
}

// GenerateTrends compares the older and newer half of the sessions and
// summarises glucose logs.
func GenerateTrends(sessions []entity.Session, logs []entity.Log) Trends {
	t := Trends{Direction: TrendInsufficient, Weekly: weeklyCounts(sessions)}

	ordered := sortedByStart(sessions)
	if len(ordered) >= minTrendSessions {
		mid := len(ordered) / 2
		t.FirstHalfSuccessRate = successRate(ordered[:mid])
		t.SecondHalfSuccessRate = successRate(ordered[mid:])
		switch diff := t.SecondHalfSuccessRate - t.FirstHalfSuccessRate; {
		case diff > trendMargin:
			t.Direction = TrendImproving
		case diff < -trendMargin:
			t.Direction = TrendDeclining
		default:
			t.Direction = TrendStable
		}
	}

	var readings []entity.Log
	for _, l := range logs {
		if l.LogType == entity.LogGlucose {
			readings = append(readings, l)
		}
	}
	sort.SliceStable(readings, func(i, j int) bool { return readings[i].LoggedAt.Before(readings[j].LoggedAt) })
	var sum float64
	var values []float64
	for i := range readings {
		if v, ok := readings[i].NumericValue(); ok {
			sum += v
			values = append(values, v)
		}
	}
	if len(values) > 0 {
		avg := sum / float64(len(values))
		t.AverageGlucose = &avg
	}
	if len(values) > 1 {
		change := values[len(values)-1] - values[0]
		t.GlucoseChange = &change
	}
	return t
}

type Predictions struct {
	NextSuccessRate          float64 `json:"nextSuccessRate"`
	RecommendedDurationHours float64 `json:"recommendedDurationHours"`
	Confidence               float64 `json:"confidence"`
}

// GeneratePredictions extrapolates the success-rate trend one step and
// suggests the average completed duration. Confidence is a fixed figure
// picked by how much history there is.
func GeneratePredictions(sessions []entity.Session) Predictions {
	p := Predictions{Confidence: 0.3}
	ordered := sortedByStart(sessions)
	if len(ordered) == 0 {
		return p
	}
	if len(ordered) >= minTrendSessions {
		mid := len(ordered) / 2
		first := successRate(ordered[:mid])
		second := successRate(ordered[mid:])
		p.NextSuccessRate = clamp(second+(second-first), 0, 100)
		p.Confidence = 0.6
	} else {
		p.NextSuccessRate = successRate(ordered)
	}

	var hours float64
	completed := 0
	for i := range ordered {
		if ordered[i].Status == entity.StatusCompleted {
			hours += ordered[i].DurationHours()
			completed++
		}
	}
	if completed > 0 {
		p.RecommendedDurationHours = math.Round(hours / float64(completed))
	}
	return p
}

// Report is everything the analytics endpoint returns.
type Report struct {
	Timeframe   Timeframe   `json:"timeframe"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Overview    Overview    `json:"overview"`
	Patterns    Patterns    `json:"patterns"`
	Trends      Trends      `json:"trends"`
	Predictions Predictions `json:"predictions"`
}

// BuildReport filters by timeframe and composes every section. The streak is
// computed over the full history so a short timeframe does not cut it.
func BuildReport(sessions []entity.Session, logs []entity.Log, achievements []entity.Achievement, tf Timeframe, now time.Time) Report {
	inRange := FilterByTimeframe(sessions, tf, now)
	overview := GenerateOverviewStats(inRange, achievements)
	overview.CurrentStreak = CalculateStreak(sessions)
	return Report{
		Timeframe:   tf,
		GeneratedAt: now,
		Overview:    overview,
		Patterns:    GeneratePatterns(inRange),
		Trends:      GenerateTrends(inRange, FilterLogsByTimeframe(logs, tf, now)),
		Predictions: GeneratePredictions(inRange),
	}
}

func sortedByStart(sessions []entity.Session) []entity.Session {
	out := make([]entity.Session, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func successRate(sessions []entity.Session) float64 {
	done := 0
	for i := range sessions {
		if sessions[i].Status == entity.StatusCompleted {
			done++
		}
	}
	return percent(done, len(sessions))
}

// weeklyCounts buckets sessions by the Monday that starts their week.
func weeklyCounts(sessions []entity.Session) []WeekCount {
	byWeek := map[string]*WeekCount{}
	for _, s := range sessions {
		key := weekStart(s.StartTime).Format("2006-01-02")
		wc, ok := byWeek[key]
		if !ok {
			wc = &WeekCount{WeekStart: key}
			byWeek[key] = wc
		}
		wc.Sessions++
		if s.Status == entity.StatusCompleted {
			wc.Completed++
		}
	}
	out := make([]WeekCount, 0, len(byWeek))
	for _, wc := range byWeek {
		out = append(out, *wc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart < out[j].WeekStart })
	return out
}

func weekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
