// Package health scores fasting risk from vitals, symptoms and elapsed time.
package health

import (
	"fmt"
	"strings"
)

// Reading is the latest health input for a fast. Nil fields were not measured.
type Reading struct {
	GlucoseLevel     *float64 `json:"glucoseLevel,omitempty"`
	HeartRate        *int     `json:"heartRate,omitempty"`
	SystolicBP       *int     `json:"systolicBP,omitempty"`
	DiastolicBP      *int     `json:"diastolicBP,omitempty"`
	OxygenSaturation *float64 `json:"oxygenSaturation,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"` // celsius
	Symptoms         []string `json:"symptoms,omitempty"`
	EnergyLevel      *int     `json:"energyLevel,omitempty"`    // 1-10
	MoodLevel        *int     `json:"moodLevel,omitempty"`      // 1-10
	HydrationLevel   *int     `json:"hydrationLevel,omitempty"` // 1-10
}

// Assessment is the merged outcome of every rule.
type Assessment struct {
	Level              Level    `json:"level"`
	Factors            []string `json:"factors"`
	Recommendations    []string `json:"recommendations"`
	Interventions      []string `json:"interventions"`
	EscalationRequired bool     `json:"escalationRequired"`
}

type finding struct {
	level           Level
	factor          string
	recommendations []string
	interventions   []string
}

type rule func(r Reading, hours float64) []finding

// rules run in this order; order only affects the order of factors.
var rules = []rule{
	glucoseRule,
	heartRateRule,
	bloodPressureRule,
	oxygenRule,
	temperatureRule,
	symptomRule,
	wellbeingRule,
	durationRule,
	hydrationRule,
}

// Assess evaluates every rule and merges the findings. The level only ever
// moves up.
func Assess(r Reading, hoursElapsed float64) Assessment {
	a := Assessment{
		Level:           LevelLow,
		Factors:         []string{},
		Recommendations: []string{},
		Interventions:   []string{},
	}
	for _, rl := range rules {
		for _, f := range rl(r, hoursElapsed) {
			a.merge(f)
		}
	}
	if len(a.Recommendations) == 0 {
		a.Recommendations = append(a.Recommendations, "Keep hydrating and check in again in a few hours")
	}
	a.EscalationRequired = a.Level >= LevelHigh
	return a
}

func (a *Assessment) merge(f finding) {
	a.Level = Max(a.Level, f.level)
	if f.factor != "" {
		a.Factors = append(a.Factors, f.factor)
	}
	a.Recommendations = appendUnique(a.Recommendations, f.recommendations...)
	a.Interventions = appendUnique(a.Interventions, f.interventions...)
}

func appendUnique(dst []string, items ...string) []string {
	for _, it := range items {
		dup := false
		for _, d := range dst {
			if d == it {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, it)
		}
	}
	return dst
}

const (
	interventionBreakFast = "break_fast_immediately"
	interventionProvider  = "contact_healthcare_provider"
	interventionEmergency = "call_emergency_services"
)

func glucoseRule(r Reading, _ float64) []finding {
	if r.GlucoseLevel == nil {
		return nil
	}
	g := *r.GlucoseLevel
	switch {
	case g < 54:
		return []finding{{
			level:           LevelCritical,
			factor:          fmt.Sprintf("severe hypoglycemia (%.0f mg/dL)", g),
			recommendations: []string{"Take 15 g of fast-acting carbohydrates now"},
			interventions:   []string{interventionBreakFast, interventionProvider},
		}}
	case g < 70:
		return []finding{{
			level:           LevelHigh,
			factor:          fmt.Sprintf("hypoglycemia (%.0f mg/dL)", g),
			recommendations: []string{"Take 15 g of fast-acting carbohydrates and recheck in 15 minutes"},
			interventions:   []string{interventionBreakFast},
		}}
	case g < 80:
		return []finding{{
			level:           LevelMedium,
			factor:          fmt.Sprintf("low glucose (%.0f mg/dL)", g),
			recommendations: []string{"Recheck glucose within 30 minutes"},
		}}
	case g > 300:
		return []finding{{
			level:           LevelCritical,
			factor:          fmt.Sprintf("severe hyperglycemia (%.0f mg/dL)", g),
			recommendations: []string{"Check ketones now"},
			interventions:   []string{interventionBreakFast, interventionProvider},
		}}
	case g > 250:
		return []finding{{
			level:           LevelHigh,
			factor:          fmt.Sprintf("hyperglycemia (%.0f mg/dL)", g),
			recommendations: []string{"Check ketones and contact your provider if they are elevated"},
			interventions:   []string{interventionProvider},
		}}
	case g > 180:
		return []finding{{
			level:           LevelMedium,
			factor:          fmt.Sprintf("elevated glucose (%.0f mg/dL)", g),
			recommendations: []string{"Recheck glucose within an hour"},
		}}
	}
	return nil
}

func heartRateRule(r Reading, _ float64) []finding {
	if r.HeartRate == nil {
		return nil
	}
	hr := *r.HeartRate
	switch {
	case hr < 40 || hr > 150:
		return []finding{{
			level:         LevelCritical,
			factor:        fmt.Sprintf("dangerous heart rate (%d bpm)", hr),
			interventions: []string{interventionBreakFast, interventionEmergency},
		}}
	case hr < 50 || hr > 120:
		return []finding{{
			level:           LevelHigh,
			factor:          fmt.Sprintf("abnormal heart rate (%d bpm)", hr),
			recommendations: []string{"Rest and remeasure your heart rate in 10 minutes"},
			interventions:   []string{interventionProvider},
		}}
	case hr > 100:
		return []finding{{
			level:           LevelMedium,
			factor:          fmt.Sprintf("elevated heart rate (%d bpm)", hr),
			recommendations: []string{"Rest and take electrolytes"},
		}}
	}
	return nil
}

func bloodPressureRule(r Reading, _ float64) []finding {
	if r.SystolicBP == nil && r.DiastolicBP == nil {
		return nil
	}
	sys, dia := 120, 80
	if r.SystolicBP != nil {
		sys = *r.SystolicBP
	}
	if r.DiastolicBP != nil {
		dia = *r.DiastolicBP
	}
	label := fmt.Sprintf("%d/%d mmHg", sys, dia)
	switch {
	case sys > 180 || dia > 120:
		return []finding{{
			level:         LevelCritical,
			factor:        "hypertensive crisis (" + label + ")",
			interventions: []string{interventionBreakFast, interventionEmergency},
		}}
	case sys < 90 || dia < 60:
		return []finding{{
			level:           LevelHigh,
			factor:          "low blood pressure (" + label + ")",
			recommendations: []string{"Sit or lie down and take salt with water"},
			interventions:   []string{interventionProvider},
		}}
	case sys > 140 || dia > 90:
		return []finding{{
			level:           LevelMedium,
			factor:          "elevated blood pressure (" + label + ")",
			recommendations: []string{"Remeasure blood pressure after resting"},
		}}
	}
	return nil
}

func oxygenRule(r Reading, _ float64) []finding {
	if r.OxygenSaturation == nil {
		return nil
	}
	o := *r.OxygenSaturation
	switch {
	case o < 90:
		return []finding{{
			level:         LevelCritical,
			factor:        fmt.Sprintf("low oxygen saturation (%.0f%%)", o),
			interventions: []string{interventionBreakFast, interventionEmergency},
		}}
	case o < 95:
		return []finding{{
			level:           LevelMedium,
			factor:          fmt.Sprintf("reduced oxygen saturation (%.0f%%)", o),
			recommendations: []string{"Remeasure oxygen saturation at rest"},
		}}
	}
	return nil
}

func temperatureRule(r Reading, _ float64) []finding {
	if r.Temperature == nil {
		return nil
	}
	t := *r.Temperature
	switch {
	case t >= 39.5 || t < 35:
		return []finding{{
			level:         LevelHigh,
			factor:        fmt.Sprintf("abnormal temperature (%.1f°C)", t),
			interventions: []string{interventionBreakFast, interventionProvider},
		}}
	case t >= 38:
		return []finding{{
			level:           LevelMedium,
			factor:          fmt.Sprintf("fever (%.1f°C)", t),
			recommendations: []string{"Consider ending the fast while you have a fever"},
		}}
	}
	return nil
}

var criticalSymptoms = []string{
	"chest pain", "fainting", "fainted", "confusion", "severe dizziness",
	"shortness of breath", "irregular heartbeat", "seizure", "slurred speech",
}

var moderateSymptoms = []string{
	"dizziness", "dizzy", "nausea", "headache", "weakness", "shaky", "shakiness",
	"palpitations", "blurred vision", "cramps", "sweating",
}

func symptomRule(r Reading, _ float64) []finding {
	var out []finding
	moderate := 0
	for _, s := range r.Symptoms {
		sym := strings.ToLower(strings.TrimSpace(s))
		if sym == "" {
			continue
		}
		if matchesAny(sym, criticalSymptoms) {
			out = append(out, finding{
				level:         LevelCritical,
				factor:        "critical symptom: " + sym,
				interventions: []string{interventionBreakFast, interventionEmergency},
			})
			continue
		}
		if matchesAny(sym, moderateSymptoms) {
			moderate++
			out = append(out, finding{
				level:           LevelMedium,
				factor:          "symptom: " + sym,
				recommendations: []string{"Take electrolytes and rest"},
			})
		}
	}
	if moderate >= 2 {
		out = append(out, finding{
			level:           LevelHigh,
			factor:          fmt.Sprintf("%d concurrent symptoms", moderate),
			recommendations: []string{"Consider ending your fast"},
			interventions:   []string{interventionProvider},
		})
	}
	return out
}

func matchesAny(s string, list []string) bool {
	for _, k := range list {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func wellbeingRule(r Reading, _ float64) []finding {
	var out []finding
	if r.EnergyLevel != nil && *r.EnergyLevel <= 2 {
		out = append(out, finding{
			level:           LevelMedium,
			factor:          fmt.Sprintf("very low energy (%d/10)", *r.EnergyLevel),
			recommendations: []string{"Rest and avoid exercise"},
		})
	}
	if r.MoodLevel != nil && *r.MoodLevel <= 2 {
		out = append(out, finding{
			level:           LevelMedium,
			factor:          fmt.Sprintf("very low mood (%d/10)", *r.MoodLevel),
			recommendations: []string{"Talk to someone you trust; it is fine to end the fast"},
		})
	}
	return out
}

func durationRule(_ Reading, hours float64) []finding {
	switch {
	case hours > 72:
		return []finding{{
			level:           LevelHigh,
			factor:          fmt.Sprintf("extended fast (%.0f hours)", hours),
			recommendations: []string{"Fasts beyond 72 hours need medical supervision"},
			interventions:   []string{interventionProvider},
		}}
	case hours > 48:
		return []finding{{
			level:           LevelMedium,
			factor:          fmt.Sprintf("long fast (%.0f hours)", hours),
			recommendations: []string{"Monitor glucose and electrolytes every few hours"},
		}}
	}
	return nil
}

func hydrationRule(r Reading, _ float64) []finding {
	if r.HydrationLevel == nil {
		return nil
	}
	h := *r.HydrationLevel
	switch {
	case h <= 1:
		return []finding{{
			level:           LevelHigh,
			factor:          fmt.Sprintf("severe dehydration (%d/10)", h),
			recommendations: []string{"Drink water with electrolytes now"},
			interventions:   []string{interventionBreakFast},
		}}
	case h <= 3:
		return []finding{{
			level:           LevelMedium,
			factor:          fmt.Sprintf("low hydration (%d/10)", h),
			recommendations: []string{"Drink a glass of water every hour"},
		}}
	}
	return nil
}
