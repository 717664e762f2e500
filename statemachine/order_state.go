package statemachine

import (
	"fmt"
	"slices"
	"strings"

	"pizzastore/models"
)

// Transition is one permitted status change and the role allowed to make it.
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor models.UserRole    `json:"actor"`
}

// orderFlow lists every move outside a manager override, in lifecycle order.
var orderFlow = []Transition{
	{From: models.StatusIncomplete, To: models.StatusPreparing, Actor: models.RoleDriver},
	{From: models.StatusIncomplete, To: models.StatusPreparing, Actor: models.RoleManager},
	// cancelling stops once the order is out the door
	{From: models.StatusIncomplete, To: models.StatusCancelled, Actor: models.RoleManager},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: models.RoleManager},
	{From: models.StatusPreparing, To: models.StatusOutForDelivery, Actor: models.RoleDriver},
	{From: models.StatusPreparing, To: models.StatusOutForDelivery, Actor: models.RoleManager},
	{From: models.StatusOutForDelivery, To: models.StatusComplete, Actor: models.RoleDriver},
	{From: models.StatusOutForDelivery, To: models.StatusComplete, Actor: models.RoleManager},
}

// permitted is orderFlow as a set.
var permitted = make(map[Transition]struct{}, len(orderFlow))

func init() {
	for _, t := range orderFlow {
		permitted[t] = struct{}{}
	}
}

// ValidTransitionsFrom is every status reachable in one step from status by
// any role, without duplicates.
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var out []models.OrderStatus
	for _, t := range orderFlow {
		if t.From != status || slices.Contains(out, t.To) {
			continue
		}
		out = append(out, t.To)
	}
	return out
}

// ValidTransitionsFor narrows ValidTransitionsFrom to what role may do.
func ValidTransitionsFor(status models.OrderStatus, role models.UserRole) []models.OrderStatus {
	role = role.Normalize()
	var nexts []models.OrderStatus
	for _, t := range orderFlow {
		if t.From == status && t.Actor == role {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition reports why role may not move an order from one status to
// the other, or nil when it may.
func CanTransition(from, to models.OrderStatus, role models.UserRole) error {
	if _, ok := permitted[Transition{From: from, To: to, Actor: role.Normalize()}]; ok {
		return nil
	}
	if from == to {
		return fmt.Errorf("order is already %s", from)
	}
	return fmt.Errorf("a %s cannot move an order from %s to %s (allowed next: %s)",
		role, from, to, describe(ValidTransitionsFor(from, role)))
}

func describe(nexts []models.OrderStatus) string {
	if len(nexts) == 0 {
		return "none"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// TerminalStates lists the states with no outgoing transition.
func TerminalStates() []models.OrderStatus {
	var out []models.OrderStatus
	for _, s := range models.Statuses {
		if len(ValidTransitionsFrom(s)) == 0 {
			out = append(out, s)
		}
	}
	return out
}

// GetAllTransitions returns a copy of the order flow.
func GetAllTransitions() []Transition {
	return slices.Clone(orderFlow)
}
