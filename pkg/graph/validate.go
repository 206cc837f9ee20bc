package graph

import (
	"fmt"

	"github.com/cadencehq/cadence/pkg/models"
)

// Validate runs every structural and configuration check on a playbook and
// returns the aggregated report. It never stops at the first problem: the
// editor surfaces the complete fix list at once. An empty report means the
// playbook may go active.
func Validate(playbook *models.Playbook) []models.ValidationIssue {
	var issues []models.ValidationIssue

	issues = append(issues, validateTrigger(playbook.Trigger)...)
	issues = append(issues, validateBindings(playbook.KnowledgeBindings)...)
	issues = append(issues, validateActions(playbook)...)

	g := Build(playbook)

	issues = append(issues, validateReferences(g)...)

	if cycleNode, found := findCycle(g); found {
		issues = append(issues, models.ValidationIssue{
			Code:    models.CodeCycleDetected,
			Message: fmt.Sprintf("action graph contains a cycle through %s", cycleNode),
			NodeID:  cycleNode,
		})
	}

	return issues
}

func validateTrigger(trigger *models.TriggerConfig) []models.ValidationIssue {
	if trigger == nil {
		return []models.ValidationIssue{{
			Code:    models.CodeMissingRequiredField,
			Message: "playbook has no trigger",
		}}
	}

	var issues []models.ValidationIssue

	if !models.KnownTriggerType(trigger.Type) {
		issues = append(issues, models.ValidationIssue{
			Code:    models.CodeMissingRequiredField,
			Message: fmt.Sprintf("unknown trigger type %q", trigger.Type),
		})
	}

	if trigger.Conditions == nil {
		return issues
	}

	if len(trigger.Conditions.Rules) == 0 {
		issues = append(issues, models.ValidationIssue{
			Code:    models.CodeEmptyRuleset,
			Message: "trigger conditions present but rule list is empty",
		})
	}

	for i, rule := range trigger.Conditions.Rules {
		if rule.Field == "" {
			issues = append(issues, models.ValidationIssue{
				Code:    models.CodeMissingRequiredField,
				Message: fmt.Sprintf("trigger rule %d: field is required", i),
			})
		}

		if !models.KnownOperator(rule.Operator) {
			issues = append(issues, models.ValidationIssue{
				Code:    models.CodeMissingRequiredField,
				Message: fmt.Sprintf("trigger rule %d: unknown operator %q", i, rule.Operator),
			})
		}
	}

	return issues
}

func validateBindings(bindings []models.KnowledgeBinding) []models.ValidationIssue {
	var issues []models.ValidationIssue

	seen := make(map[string]bool, len(bindings))

	for _, binding := range bindings {
		if seen[binding.KnowledgeBaseID] {
			issues = append(issues, models.ValidationIssue{
				Code:    models.CodeInvalidPriority,
				Message: fmt.Sprintf("knowledge base %s bound more than once", binding.KnowledgeBaseID),
			})
		}

		seen[binding.KnowledgeBaseID] = true

		if binding.Priority < 1 || binding.Priority > 10 {
			issues = append(issues, models.ValidationIssue{
				Code:    models.CodeInvalidPriority,
				Message: fmt.Sprintf("knowledge base %s: priority %d outside [1,10]", binding.KnowledgeBaseID, binding.Priority),
			})
		}
	}

	return issues
}

func validateActions(playbook *models.Playbook) []models.ValidationIssue {
	var issues []models.ValidationIssue

	seen := make(map[string]bool, len(playbook.Actions))

	for _, action := range playbook.Actions {
		if seen[action.ID] {
			issues = append(issues, models.ValidationIssue{
				Code:    models.CodeDuplicateID,
				Message: fmt.Sprintf("duplicate action id %s", action.ID),
				NodeID:  action.ID,
			})

			continue
		}

		seen[action.ID] = true

		issues = append(issues, action.ValidatePayload()...)

		// Branch conditions may only reference fields the trigger category
		// guarantees, so a live walk never hits an unresolvable condition.
		if action.Type == models.ActionBranch && action.Branch != nil && playbook.Trigger != nil {
			field := action.Branch.Condition.Field
			if field != "" && !playbook.Trigger.Type.GuaranteesField(field) {
				issues = append(issues, models.ValidationIssue{
					Code:    models.CodeMissingRequiredField,
					Message: fmt.Sprintf("action %s: branch condition references %q, not guaranteed by %s events", action.ID, field, playbook.Trigger.Type),
					NodeID:  action.ID,
				})
			}
		}
	}

	return issues
}

func validateReferences(g *Graph) []models.ValidationIssue {
	var issues []models.ValidationIssue

	for _, id := range g.order {
		for _, edge := range g.out[id] {
			if _, ok := g.nodes[edge.To]; !ok {
				issues = append(issues, models.ValidationIssue{
					Code:    models.CodeDanglingReference,
					Message: fmt.Sprintf("action %s references unknown action %s (%s)", edge.From, edge.To, edge.Kind),
					NodeID:  edge.From,
				})
			}
		}
	}

	return issues
}

// findCycle runs a DFS with an explicit recursion stack over every component
// and reports the first node found on a back-edge. Re-convergence (two paths
// reaching the same node) is legal; only a back-edge to an ancestor of the
// current path is a cycle.
func findCycle(g *Graph) (string, bool) {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)

	state := make(map[string]int, len(g.nodes))

	var visit func(id string) (string, bool)

	visit = func(id string) (string, bool) {
		state[id] = inStack

		for _, edge := range g.out[id] {
			if _, ok := g.nodes[edge.To]; !ok {
				continue // dangling, reported separately
			}

			switch state[edge.To] {
			case inStack:
				return edge.To, true
			case unvisited:
				if node, found := visit(edge.To); found {
					return node, found
				}
			}
		}

		state[id] = done

		return "", false
	}

	for _, id := range g.order {
		if state[id] == unvisited {
			if node, found := visit(id); found {
				return node, true
			}
		}
	}

	return "", false
}
