package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"nexus_crm_backend/internal/criteria/repository"
	leadrepo "nexus_crm_backend/internal/leads/repository"
)

func evaluate(t *testing.T, cond repository.Condition, facts Facts) bool {
	t.Helper()
	matched, err := Evaluate(cond, facts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return matched
}

func TestEvaluate_NumericComparisonAcrossTypes(t *testing.T) {
	// JSONB values unmarshal as float64; facts may be native ints.
	facts := Facts{"completed_activities": 3}

	cond := repository.Condition{Field: "completed_activities", Operator: repository.OpGte, Value: float64(2)}
	if !evaluate(t, cond, facts) {
		t.Fatalf("expected int fact 3 >= float64 2 to match")
	}

	cond.Operator = repository.OpLt
	if evaluate(t, cond, facts) {
		t.Fatalf("expected 3 < 2 not to match")
	}
}

func TestEvaluate_EqIsCaseInsensitiveForStrings(t *testing.T) {
	facts := Facts{"timeline": "ASAP"}

	cond := repository.Condition{Field: "timeline", Operator: repository.OpEq, Value: "asap"}
	if !evaluate(t, cond, facts) {
		t.Fatalf("expected case-insensitive string equality")
	}

	cond.Operator = repository.OpNeq
	if evaluate(t, cond, facts) {
		t.Fatalf("expected neq to be the negation of eq")
	}
}

func TestEvaluate_PresentOnAbsentEmptyAndSetFacts(t *testing.T) {
	cond := repository.Condition{Field: "phone", Operator: repository.OpPresent}

	if evaluate(t, cond, Facts{}) {
		t.Fatalf("expected absent fact not to be present")
	}
	if evaluate(t, cond, Facts{"phone": ""}) {
		t.Fatalf("expected empty string not to be present")
	}
	if evaluate(t, cond, Facts{"phone": "  "}) {
		t.Fatalf("expected whitespace not to be present")
	}
	if !evaluate(t, cond, Facts{"phone": "+33612345678"}) {
		t.Fatalf("expected set phone to be present")
	}
}

func TestEvaluate_ContainsOnStringSlice(t *testing.T) {
	facts := Facts{"services": []string{"web_development", "seo"}}

	cond := repository.Condition{Field: "services", Operator: repository.OpContains, Value: "seo"}
	if !evaluate(t, cond, facts) {
		t.Fatalf("expected slice membership to match")
	}

	cond.Value = "design"
	if evaluate(t, cond, facts) {
		t.Fatalf("expected missing element not to match")
	}
}

func TestEvaluate_InMatchesSliceFactAgainstListValue(t *testing.T) {
	facts := Facts{"services": []string{"maintenance"}}

	cond := repository.Condition{
		Field:    "services",
		Operator: repository.OpIn,
		Value:    []interface{}{"web_development", "maintenance"},
	}
	if !evaluate(t, cond, facts) {
		t.Fatalf("expected intersection to match")
	}

	cond.Value = []interface{}{"design"}
	if evaluate(t, cond, facts) {
		t.Fatalf("expected disjoint sets not to match")
	}
}

func TestEvaluate_UnknownFieldIsAnError(t *testing.T) {
	cond := repository.Condition{Field: "no_such_fact", Operator: repository.OpEq, Value: "x"}

	if _, err := Evaluate(cond, Facts{"timeline": "asap"}); err == nil {
		t.Fatalf("expected error for unknown fact field")
	}
}

func TestEvaluate_TypeMismatchIsAnError(t *testing.T) {
	cond := repository.Condition{Field: "timeline", Operator: repository.OpGt, Value: float64(5)}

	if _, err := Evaluate(cond, Facts{"timeline": "asap"}); err == nil {
		t.Fatalf("expected error comparing string with gt")
	}
}

func TestBuildFacts_FlattensLeadAndActivityStats(t *testing.T) {
	budget := int64(750000)
	lastActivity := time.Now().Add(-72 * time.Hour)
	lead := leadrepo.Lead{
		ID:                uuid.New(),
		FirstName:         "Claire",
		LastName:          "Moreau",
		Email:             "claire@example.fr",
		Phone:             "+33612345678",
		Services:          []string{"web_development"},
		BudgetBand:        "5000_10000",
		BudgetAmountCents: &budget,
		Timeline:          "asap",
		Description:       "We need a full site rebuild for our agency.",
		Source:            "referral",
		Status:            leadrepo.StatusNew,
	}

	facts := BuildFacts(lead, ActivityStats{CompletedCount: 2, LastCompleted: &lastActivity}, time.Now())

	if facts["budget_amount"] != float64(7500) {
		t.Fatalf("expected budget_amount 7500 euros, got %v", facts["budget_amount"])
	}
	if facts["completed_activities"] != 2 {
		t.Fatalf("expected 2 completed activities, got %v", facts["completed_activities"])
	}
	if facts["days_since_last_activity"] != 3 {
		t.Fatalf("expected 3 days since last activity, got %v", facts["days_since_last_activity"])
	}
	if facts["message_length"].(int) == 0 {
		t.Fatalf("expected non-zero message length")
	}
}

func TestBuildFacts_OmitsUndeclaredBudgetAndActivity(t *testing.T) {
	facts := BuildFacts(leadrepo.Lead{BudgetBand: "unknown"}, ActivityStats{}, time.Now())

	if _, ok := facts["budget_amount"]; ok {
		t.Fatalf("expected no budget_amount fact for undeclared budget")
	}
	if _, ok := facts["days_since_last_activity"]; ok {
		t.Fatalf("expected no recency fact without completed activity")
	}
}
