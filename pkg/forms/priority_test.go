package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatrelay/chatrelay/pkg/tenant"
)

func TestDeterminePriority_Urgency(t *testing.T) {
	cases := []struct {
		urgency string
		want    string
	}{
		{"immediate", PriorityHigh},
		{"urgent", PriorityHigh},
		{"high", PriorityHigh},
		{"URGENT", PriorityHigh},
		{"normal", PriorityNormal},
		{"this week", PriorityNormal},
		{"whenever", PriorityLow},
		{"someday", PriorityLow},
	}
	for _, tc := range cases {
		got := DeterminePriority("contact", map[string]interface{}{"urgency": tc.urgency}, nil)
		assert.Equal(t, tc.want, got, "urgency %q", tc.urgency)
	}
}

func TestDeterminePriority_UrgencyOverridesFormDefault(t *testing.T) {
	// A newsletter signup defaults to low, but the visitor's urgency wins.
	got := DeterminePriority("newsletter", map[string]interface{}{"urgency": "urgent"}, nil)
	assert.Equal(t, PriorityHigh, got)
}

func TestDeterminePriority_Rules(t *testing.T) {
	form := &tenant.Form{
		PriorityRules: []tenant.PriorityRule{
			{Field: "support_type", Value: "crisis", Priority: PriorityHigh},
			{Field: "support_type", Value: "general", Priority: PriorityLow},
		},
	}

	got := DeterminePriority("contact", map[string]interface{}{"support_type": "crisis"}, form)
	assert.Equal(t, PriorityHigh, got)

	got = DeterminePriority("contact", map[string]interface{}{"support_type": "general"}, form)
	assert.Equal(t, PriorityLow, got)

	// No rule match falls through to the form-type default.
	got = DeterminePriority("contact", map[string]interface{}{"support_type": "other"}, form)
	assert.Equal(t, PriorityNormal, got)
}

func TestDeterminePriority_FormTypeDefaults(t *testing.T) {
	none := map[string]interface{}{}
	assert.Equal(t, PriorityHigh, DeterminePriority("request_support", none, nil))
	assert.Equal(t, PriorityLow, DeterminePriority("newsletter", none, nil))
	assert.Equal(t, PriorityNormal, DeterminePriority("volunteer_apply", none, nil))
	assert.Equal(t, PriorityNormal, DeterminePriority("some_custom_form", none, nil))
}

func TestDeterminePriority_Deterministic(t *testing.T) {
	data := map[string]interface{}{"urgency": "urgent"}
	first := DeterminePriority("volunteer_apply", data, nil)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, DeterminePriority("volunteer_apply", data, nil))
	}
}
