package shared

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/xvenue/internal/schema"
)

func TestStatusRulesFirstMatchWins(t *testing.T) {
	rules := StatusRules[int]{
		{Name: "negative", When: func(v int) bool { return v < 0 }, Then: Always[int](schema.OrderStatusCanceled)},
		{Name: "small", When: func(v int) bool { return v < 10 }, Then: Always[int](schema.OrderStatusNew)},
		{Name: "any", When: func(int) bool { return true }, Then: Always[int](schema.OrderStatusFilled)},
	}

	status, rule := rules.Match(-5)
	require.Equal(t, schema.OrderStatusCanceled, status)
	require.Equal(t, "negative", rule)

	require.Equal(t, schema.OrderStatusNew, rules.Resolve(3))
	require.Equal(t, schema.OrderStatusFilled, rules.Resolve(50))
}

func TestStatusRulesDefaultToUnknown(t *testing.T) {
	rules := StatusRules[string]{
		{Name: "open", When: func(s string) bool { return s == "open" }, Then: Always[string](schema.OrderStatusNew)},
		{Name: "broken", When: func(s string) bool { return s == "broken" }},
	}
	status, rule := rules.Match("other")
	require.Equal(t, schema.OrderStatusUnknown, status)
	require.Empty(t, rule)
	require.Equal(t, schema.OrderStatusUnknown, rules.Resolve("broken"))
}
