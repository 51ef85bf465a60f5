package analytics

import (
	"sort"
	"time"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
)

// Rate is a success rate over a group of sessions.
type Rate struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	SuccessRate float64 `json:"successRate"`
}

type Patterns struct {
	ByWeekday   map[string]Rate `json:"byWeekday"`
	ByHour      map[int]Rate    `json:"byHour"`
	ByMonth     map[string]Rate `json:"byMonth"`
	ByType      map[string]Rate `json:"byType"`
	BestWeekday string          `json:"bestWeekday,omitempty"`
	BestHour    *int            `json:"bestHour,omitempty"`
}

// GeneratePatterns groups sessions by start weekday, start hour, start month
// and protocol, and reports the success rate of each group.
func GeneratePatterns(sessions []entity.Session) Patterns {
	p := Patterns{
		ByWeekday: map[string]Rate{},
		ByHour:    map[int]Rate{},
		ByMonth:   map[string]Rate{},
		ByType:    map[string]Rate{},
	}
	for _, s := range sessions {
		done := s.Status == entity.StatusCompleted
		accumulate(p.ByWeekday, s.StartTime.Weekday().String(), done)
		accumulate(p.ByHour, s.StartTime.Hour(), done)
		accumulate(p.ByMonth, s.StartTime.Month().String(), done)
		accumulate(p.ByType, s.FastingType, done)
	}
	finalize(p.ByWeekday)
	finalize(p.ByHour)
	finalize(p.ByMonth)
	finalize(p.ByType)

	bestRate := -1.0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if r, ok := p.ByWeekday[d.String()]; ok && r.SuccessRate > bestRate {
			bestRate = r.SuccessRate
			p.BestWeekday = d.String()
		}
	}
	hours := make([]int, 0, len(p.ByHour))
	for h := range p.ByHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	bestRate = -1.0
	for _, h := range hours {
		if r := p.ByHour[h]; r.SuccessRate > bestRate {
			bestRate = r.SuccessRate
			hour := h
			p.BestHour = &hour
		}
	}
	return p
}

func accumulate[K comparable](m map[K]Rate, key K, completed bool) {
	r := m[key]
	r.Total++
	if completed {
		r.Completed++
	}
	m[key] = r
}

func finalize[K comparable](m map[K]Rate) {
	for k, r := range m {
		r.SuccessRate = percent(r.Completed, r.Total)
		m[k] = r
	}
}
