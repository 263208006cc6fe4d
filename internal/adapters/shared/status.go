package shared

import "github.com/coachpo/xvenue/internal/schema"

// StatusRule maps raw venue records matching When to the status produced by Then.
type StatusRule[T any] struct {
	Name string
	When func(T) bool
	Then func(T) schema.OrderStatus
}

// Always returns a Then function yielding a fixed status.
func Always[T any](status schema.OrderStatus) func(T) schema.OrderStatus {
	return func(T) schema.OrderStatus { return status }
}

// StatusRules is an ordered rule list evaluated top to bottom. Rules may
// overlap, so the order is part of the mapping.
type StatusRules[T any] []StatusRule[T]

// Resolve returns the status of the first matching rule, or OrderStatusUnknown.
func (rules StatusRules[T]) Resolve(record T) schema.OrderStatus {
	status, _ := rules.Match(record)
	return status
}

// Match is Resolve that also names the matching rule ("" when none matched).
func (rules StatusRules[T]) Match(record T) (schema.OrderStatus, string) {
	for _, rule := range rules {
		if rule.When == nil || !rule.When(record) {
			continue
		}
		if rule.Then == nil {
			return schema.OrderStatusUnknown, rule.Name
		}
		return rule.Then(record), rule.Name
	}
	return schema.OrderStatusUnknown, ""
}
