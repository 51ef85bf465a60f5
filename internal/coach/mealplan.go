package coach

import (
	"fmt"
	"strings"
)

// MealPlanType names the kind of plan the planner produced.
type MealPlanType string

const (
	MealPlanLowGlucose   MealPlanType = "low_glucose"
	MealPlanRefeeding    MealPlanType = "refeeding"
	MealPlanLowCarb      MealPlanType = "low_carb"
	MealPlanSnack        MealPlanType = "snack"
	MealPlanEatingWindow MealPlanType = "eating_window"
)

// MealRequest carries what the user asked for and what we know about them.
type MealRequest struct {
	Message      string   `json:"message"`
	GlucoseLevel *float64 `json:"glucoseLevel,omitempty"`
	HoursElapsed float64  `json:"timeIntoFast,omitempty"`
	FastingType  string   `json:"fastingType,omitempty"`
	Preferences  []string `json:"preferences,omitempty"`
}

type Meal struct {
	Name       string   `json:"name"`
	Timing     string   `json:"timing"`
	Items      []string `json:"items"`
	CarbsGrams int      `json:"carbs_g"`
}

type MealPlan struct {
	Type    MealPlanType `json:"type"`
	Message string       `json:"message"`
	Meals   []Meal       `json:"meals"`
	Tips    []string     `json:"tips,omitempty"`
	Warning string       `json:"warning,omitempty"`
}

type mealRoute struct {
	plan  MealPlanType
	match func(p *Planner, text string, req MealRequest) bool
	build func(p *Planner, req MealRequest) MealPlan
}

var mealRoutes = []mealRoute{
	{
		plan: MealPlanLowGlucose,
		match: func(p *Planner, text string, req MealRequest) bool {
			if req.GlucoseLevel != nil && *req.GlucoseLevel < p.th.GlucoseUrgent {
				return true
			}
			return containsAny(text, []string{"low sugar", "hypo", "shaky"})
		},
		build: (*Planner).lowGlucose,
	},
	{
		plan:  MealPlanRefeeding,
		match: keywordMatch("break my fast", "breaking my fast", "break the fast", "refeed", "after my fast", "end my fast"),
		build: (*Planner).refeeding,
	},
	{
		plan:  MealPlanLowCarb,
		match: keywordMatch("keto", "low carb", "low-carb"),
		build: (*Planner).lowCarb,
	},
	{
		plan:  MealPlanSnack,
		match: keywordMatch("snack"),
		build: (*Planner).snack,
	},
	{
		plan:  MealPlanEatingWindow,
		match: func(*Planner, string, MealRequest) bool { return true },
		build: (*Planner).eatingWindow,
	},
}

func keywordMatch(keywords ...string) func(*Planner, string, MealRequest) bool {
	return func(_ *Planner, text string, _ MealRequest) bool {
		return containsAny(text, keywords)
	}
}

// Planner suggests meals around a fast.
type Planner struct {
	th Thresholds
}

// NewPlanner shares the coach thresholds so both agree on what "low" means.
func NewPlanner(th Thresholds) *Planner {
	return &Planner{th: New(th).Thresholds()}
}

// Plan picks the first matching plan and applies dietary preferences.
func (p *Planner) Plan(req MealRequest) MealPlan {
	text := normalize(req.Message)
	for _, r := range mealRoutes {
		if r.match(p, text, req) {
			plan := r.build(p, req)
			plan.Type = r.plan
			applyPreferences(&plan, req.Preferences)
			return plan
		}
	}
	// unreachable: the last route always matches
	return MealPlan{Type: MealPlanEatingWindow}
}

func (p *Planner) lowGlucose(req MealRequest) MealPlan {
	msg := "Treat low blood sugar first, then eat a proper meal."
	if req.GlucoseLevel != nil {
		msg = fmt.Sprintf("Your glucose is %s mg/dL. Treat it first, then eat a proper meal.", formatNumber(*req.GlucoseLevel))
	}
	return MealPlan{
		Message: msg,
		Meals: []Meal{
			{Name: "Fast-acting carbs", Timing: "now", Items: []string{"120 ml fruit juice", "or 4 glucose tablets"}, CarbsGrams: 15},
			{Name: "Follow-up meal", Timing: "after 15 minutes, once glucose is above 70 mg/dL", Items: []string{"whole grain toast", "eggs", "a piece of fruit"}, CarbsGrams: 35},
		},
		Tips:    []string{"Recheck your glucose after 15 minutes", "Repeat the fast-acting carbs if it is still low"},
		Warning: "Do not resume fasting today.",
	}
}

func (p *Planner) refeeding(req MealRequest) MealPlan {
	plan := MealPlan{
		Message: "Break your fast gently with small, easy-to-digest foods.",
		Meals: []Meal{
			{Name: "Opener", Timing: "first", Items: []string{"bone broth", "a handful of berries"}, CarbsGrams: 10},
			{Name: "Main meal", Timing: "30 to 60 minutes later", Items: []string{"grilled chicken", "steamed vegetables", "half a cup of brown rice"}, CarbsGrams: 30},
		},
		Tips: []string{"Eat slowly", "Avoid large amounts of sugar or refined carbs in the first meal"},
	}
	if req.HoursElapsed >= 24 {
		plan.Warning = "After fasts longer than 24 hours, reintroduce food over a few hours and watch for dizziness or swelling."
		plan.Meals[1].Items = []string{"grilled chicken", "steamed vegetables"}
		plan.Meals[1].CarbsGrams = 12
	}
	return plan
}

func (p *Planner) lowCarb(MealRequest) MealPlan {
	return MealPlan{
		Message: "A low-carb eating window keeps glucose steady and makes the next fast easier.",
		Meals: []Meal{
			{Name: "First meal", Timing: "start of eating window", Items: []string{"eggs", "avocado", "spinach"}, CarbsGrams: 8},
			{Name: "Last meal", Timing: "end of eating window", Items: []string{"salmon", "roasted vegetables", "olive oil"}, CarbsGrams: 15},
		},
		Tips: []string{"Keep carbs under 50 g during the window", "Add salt to offset electrolyte loss"},
	}
}

func (p *Planner) snack(MealRequest) MealPlan {
	return MealPlan{
		Message: "Snacks that won't spike your glucose:",
		Meals: []Meal{
			{Name: "Snack", Timing: "inside your eating window", Items: []string{"greek yogurt", "a handful of almonds", "celery with peanut butter"}, CarbsGrams: 10},
		},
		Tips: []string{"Snacking outside your window breaks the fast"},
	}
}

func (p *Planner) eatingWindow(req MealRequest) MealPlan {
	msg := "A balanced eating window with two meals:"
	if req.FastingType != "" {
		msg = fmt.Sprintf("A balanced eating window for your %s schedule:", req.FastingType)
	}
	return MealPlan{
		Message: msg,
		Meals: []Meal{
			{Name: "First meal", Timing: "start of eating window", Items: []string{"eggs", "whole grain toast", "a piece of fruit"}, CarbsGrams: 35},
			{Name: "Second meal", Timing: "end of eating window", Items: []string{"grilled chicken", "quinoa", "mixed salad"}, CarbsGrams: 40},
		},
		Tips: []string{"Pair carbs with protein and fat", "Drink water with every meal"},
	}
}

var vegetarianSwaps = map[string]string{
	"bone broth":      "miso broth",
	"grilled chicken": "lentils",
	"salmon":          "tempeh",
}

var veganSwaps = map[string]string{
	"eggs":         "tofu scramble",
	"greek yogurt": "soy yogurt",
}

func applyPreferences(plan *MealPlan, prefs []string) {
	var swaps []map[string]string
	for _, p := range prefs {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "vegetarian":
			swaps = append(swaps, vegetarianSwaps)
		case "vegan":
			swaps = append(swaps, vegetarianSwaps, veganSwaps)
		}
	}
	if len(swaps) == 0 {
		return
	}
	for i := range plan.Meals {
		items := make([]string, len(plan.Meals[i].Items))
		for j, item := range plan.Meals[i].Items {
			for _, m := range swaps {
				if v, ok := m[item]; ok {
					item = v
				}
			}
			items[j] = item
		}
		plan.Meals[i].Items = items
	}
}
