package engine

import (
	"time"

	leadrepo "nexus_crm_backend/internal/leads/repository"
)

// Facts is the flat fact set a lead is scored against. Condition fields
// resolve against these keys; a condition naming an unknown key is skipped,
// never fatal.
type Facts map[string]interface{}

// ActivityStats summarizes the sales-activity ledger for one lead. Zero
// values are valid: a freshly captured lead has no activity history.
type ActivityStats struct {
	CompletedCount int
	LastCompleted  *time.Time
}

// BuildFacts flattens a lead and its activity summary into the fact set.
// Keys here are the vocabulary criteria conditions are written in.
func BuildFacts(lead leadrepo.Lead, stats ActivityStats, now time.Time) Facts {
	facts := Facts{
		"first_name":           lead.FirstName,
		"last_name":            lead.LastName,
		"email":                lead.Email,
		"phone":                lead.Phone,
		"services":             lead.Services,
		"budget_band":          lead.BudgetBand,
		"timeline":             lead.Timeline,
		"message_length":       len(lead.Description),
		"source":               lead.Source,
		"status":               lead.Status,
		"followup_calls":       lead.FollowupCalls,
		"completed_activities": stats.CompletedCount,
	}

	if lead.BudgetAmountCents != nil {
		// Criteria reason in whole euros; storage is cents.
		facts["budget_amount"] = float64(*lead.BudgetAmountCents) / 100
	}
	if stats.LastCompleted != nil {
		facts["days_since_last_activity"] = int(now.Sub(*stats.LastCompleted).Hours() / 24)
	}

	return facts
}
