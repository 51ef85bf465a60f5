package coach

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
)

// ActionBreakFast is the action clients treat as "end the fast now".
const ActionBreakFast = "break_fast_immediately"

func (c *Coach) handleEmergency(Context) Response {
	return Response{
		Message: "This sounds serious. Please break your fast now and contact your healthcare provider. " +
			"If you have chest pain, trouble breathing or feel faint, call emergency services immediately.",
		Recommendations: []string{
			"Sip water and take a fast-acting carbohydrate such as juice or glucose tablets",
			"Check your blood glucose if you have a meter",
			"Do not drive or exercise until you feel well",
		},
		Actions:   []string{ActionBreakFast, "contact_healthcare_provider", "call_emergency_services"},
		Urgency:   UrgencyHigh,
		Emergency: true,
	}
}

func (c *Coach) handleDifficulty(in Context) Response {
	text := normalize(in.Message)
	hours := formatHours(in.HoursElapsed)

	var resp Response
	switch {
	case strings.Contains(text, "hungry") || strings.Contains(text, "hunger") || strings.Contains(text, "craving"):
		resp = Response{
			Message: fmt.Sprintf("You're %s hours into your fast. Hunger usually comes in waves and passes within 15 to 20 minutes.", hours),
			Tips: []string{
				"Drink a large glass of water or sparkling water",
				"Try black coffee or plain herbal tea",
				"Keep busy; a short walk often outlasts a hunger wave",
				"Add a pinch of salt to your water if you feel shaky",
			},
			Encouragement: "Each wave you ride out makes the next one easier.",
		}
	case strings.Contains(text, "tired") || strings.Contains(text, "weak") || strings.Contains(text, "exhausted"):
		resp = Response{
			Message: fmt.Sprintf("Feeling tired or weak %s hours in is common while your body switches to burning fat.", hours),
			Tips: []string{
				"Take electrolytes: sodium, potassium and magnesium",
				"Rest instead of training hard today",
				"Get some daylight and fresh air",
			},
			Recommendations: []string{
				"Check your glucose; below 70 mg/dL means it is time to eat",
			},
			Encouragement: "Low energy usually lifts once your body adapts.",
		}
	default:
		resp = Response{
			Message: fmt.Sprintf("You're %s hours in and it's okay that this feels hard.", hours),
			Tips: []string{
				"Stay hydrated",
				"Distract yourself with something you enjoy",
				"Remind yourself why you started this fast",
			},
			Encouragement: "You've already come a long way.",
		}
	}

	if in.HoursElapsed > c.th.DifficultyWarningHours {
		resp.Warning = fmt.Sprintf("You have been fasting for more than %s hours. Monitor your glucose closely and end the fast if you feel unwell.",
			formatNumber(c.th.DifficultyWarningHours))
	}
	return resp
}

func (c *Coach) handleHealthConcern(in Context) Response {
	if in.GlucoseLevel == nil {
		resp := Response{
			Message: "I can't judge how safe it is to continue without a glucose reading.",
			Recommendations: []string{
				"Check your blood glucose now",
				"Stay hydrated and take electrolytes",
				"End the fast if symptoms get worse",
				"Contact your healthcare provider if you are unsure",
			},
		}
		if len(in.Symptoms) > 0 {
			resp.Tips = []string{"Keep tracking: " + strings.Join(in.Symptoms, ", ")}
		}
		return resp
	}

	g := *in.GlucoseLevel
	reading := formatNumber(g)
	switch {
	case g < c.th.GlucoseUrgent:
		return Response{
			Message: fmt.Sprintf("Your glucose reading of %s mg/dL is too low to keep fasting. Break your fast now with 15 g of fast-acting carbohydrates.", reading),
			Actions: []string{ActionBreakFast, "take_fast_acting_carbs", "recheck_glucose_in_15_minutes", "contact_healthcare_provider"},
			Urgency: UrgencyHigh,
			Warning: "Low blood sugar can become dangerous quickly.",
		}
	case g < c.th.GlucoseCaution:
		return Response{
			Message: fmt.Sprintf("Your glucose reading of %s mg/dL is on the low side.", reading),
			Actions: []string{"recheck_glucose_in_30_minutes", "prepare_fast_acting_carbs"},
			Recommendations: []string{
				fmt.Sprintf("Break your fast if it drops below %s mg/dL or you feel shaky, sweaty or confused", formatNumber(c.th.GlucoseUrgent)),
			},
			Urgency: UrgencyMedium,
		}
	default:
		return Response{
			Message:         fmt.Sprintf("Your glucose reading of %s mg/dL is not low, so there is no need to break your fast for it.", reading),
			Recommendations: []string{"Keep checking every few hours", "Use the health monitor if your readings run high"},
			Encouragement:   "Keep going at your own pace.",
		}
	}
}

func (c *Coach) handleMotivation(in Context) Response {
	completed := 0
	for _, s := range in.History {
		if s.Status == entity.StatusCompleted {
			completed++
		}
	}
	noun := "fasts"
	if completed == 1 {
		noun = "fast"
	}
	resp := Response{
		Message: fmt.Sprintf("You have already completed %d %s. You know how to do this.", completed, noun),
		Tips: []string{
			"Picture how you'll feel when this fast is done",
			"Break the rest of the fast into one-hour chunks",
			"Tell a friend about your goal",
		},
		Encouragement: "Every hour you fast is progress toward your goals.",
	}
	if in.Phase == entity.PhaseDeep || in.Phase == entity.PhaseExtended {
		resp.Tips = append(resp.Tips, "You're past the hardest part; deep fasting is where the benefits build up")
	}
	return resp
}

func (c *Coach) handleSchedule(in Context) Response {
	text := normalize(in.Message)
	switch {
	case strings.Contains(text, "extend"):
		return Response{
			Message: "Before extending your fast, run through this checklist:",
			Recommendations: []string{
				fmt.Sprintf("Your glucose is at or above %s mg/dL", formatNumber(c.th.GlucoseCaution)),
				"You feel well and clear-headed",
				"You are drinking enough water and electrolytes",
				"Your healthcare provider is fine with longer fasts",
			},
			Actions: []string{"update_planned_end_time"},
		}
	case strings.Contains(text, "shorten"):
		return Response{
			Message: "Shortening a fast is a sensible choice, not a failure.",
			Recommendations: []string{
				"Break the fast with a small, balanced meal",
				"Log how you felt so you can plan the next one",
				"Keep your next eating window regular",
			},
			Actions: []string{"end_fast_early"},
		}
	default:
		return Response{
			Message: "You can adjust your fasting schedule at any time.",
			Tips: []string{
				"Keep your eating window at the same time each day",
				"Move the window earlier if you sleep poorly after late meals",
				"Change one thing at a time and give it a week",
			},
		}
	}
}

func (c *Coach) handleInformation(in Context) Response {
	text := normalize(in.Message)
	switch {
	case strings.Contains(text, "autophagy"):
		return Response{
			Message: "Autophagy is the process where your cells break down and recycle damaged parts. " +
				"It is thought to increase after roughly 16 to 24 hours without food.",
			Tips: []string{
				"Longer fasts are not always better; consistency matters more",
				"Protein intake around your eating window supports repair",
			},
		}
	case strings.Contains(text, "ketosis"):
		return Response{
			Message: "Ketosis is when your body burns fat for fuel and produces ketones. " +
				"Most people start entering ketosis after 12 to 18 hours of fasting.",
			Tips: []string{
				"Blood or breath ketone meters show where you are",
				"If you take insulin, ask your provider about ketone limits",
			},
		}
	}
	resp := Response{
		Message: "Here are some topics I can help with:",
		Tips: []string{
			"Autophagy and cellular repair",
			"Ketosis and fat burning",
			"Managing hunger",
			"Glucose safety while fasting",
			"Breaking your fast",
		},
	}
	if in.Phase != "" {
		resp.Message = fmt.Sprintf("You're in the %s phase. Here are some topics I can help with:", in.Phase)
	}
	return resp
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 1, 64)
}

// formatNumber prints 65 as "65" and 72.5 as "72.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
