package services

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"wellness-entitlements/models"
)

type ViolationCode string

const (
	ViolationMissingTitle       ViolationCode = "missingTitle"
	ViolationMissingDescription ViolationCode = "missingDescription"
	ViolationEmptySteps         ViolationCode = "emptySteps"
	ViolationNegativeDuration   ViolationCode = "negativeDuration"
	ViolationTooManySteps       ViolationCode = "tooManySteps"
	ViolationCreationLocked     ViolationCode = "creationLocked"
	ViolationSchedulingLocked   ViolationCode = "schedulingLocked"
	ViolationAILocked           ViolationCode = "aiLocked"
)

// Violation is one failed authoring constraint. Step is -1 when the
// violation is not about a particular step.
type Violation struct {
	Code    ViolationCode `json:"code"`
	Message string        `json:"message"`
	Step    int           `json:"step"`
}

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// TemplateConstraintEngine enforces tier-dependent authoring limits.
type TemplateConstraintEngine struct {
	stepLimits map[string]int
}

func NewTemplateConstraintEngine(stepLimits map[string]int) *TemplateConstraintEngine {
	limits := make(map[string]int, len(stepLimits))
	for k, v := range stepLimits {
		limits[k] = v
	}
	return &TemplateConstraintEngine{stepLimits: limits}
}

// MaxSteps is a table lookup; unknown tiers may author nothing.
func (e *TemplateConstraintEngine) MaxSteps(tier models.Tier) int {
	return e.stepLimits[tier.ID]
}

func (e *TemplateConstraintEngine) CanCreateTemplate(tier models.Tier) bool {
	return tier.Has(models.FeatureTemplateCreate) && e.MaxSteps(tier) > 0
}

func (e *TemplateConstraintEngine) CanSchedule(tier models.Tier) bool {
	return tier.Has(models.FeatureTemplateSchedule)
}

func (e *TemplateConstraintEngine) CanUseAI(tier models.Tier) bool {
	return tier.Has(models.FeatureAISuggestions)
}

// ValidateDraft collects every violation in one pass. It has no side effects.
func (e *TemplateConstraintEngine) ValidateDraft(draft models.TemplateDraft, tier models.Tier) []Violation {
	violations := []Violation{}
	add := func(code ViolationCode, step int, format string, args ...interface{}) {
		violations = append(violations, Violation{Code: code, Step: step, Message: fmt.Sprintf(format, args...)})
	}

	if !e.CanCreateTemplate(tier) {
		add(ViolationCreationLocked, -1, "tier %s cannot create templates", tier.ID)
	}
	if strings.TrimSpace(draft.Title) == "" {
		add(ViolationMissingTitle, -1, "title is required")
	}
	if strings.TrimSpace(draft.Description) == "" {
		add(ViolationMissingDescription, -1, "description is required")
	}
	if len(draft.Steps) == 0 {
		add(ViolationEmptySteps, -1, "at least one step is required")
	}
	if limit := e.MaxSteps(tier); len(draft.Steps) > limit {
		add(ViolationTooManySteps, -1, "%d steps exceeds the limit of %d for tier %s", len(draft.Steps), limit, tier.ID)
	}
	if draft.Schedule != nil && !e.CanSchedule(tier) {
		add(ViolationSchedulingLocked, -1, "scheduling is not available at tier %s", tier.ID)
	}
	canUseAI := e.CanUseAI(tier)
	for i, s := range draft.Steps {
		if s.DurationSeconds < 0 {
			add(ViolationNegativeDuration, i, "step %d has a negative duration", i+1)
		}
		if s.AISuggestion != "" && !canUseAI {
			add(ViolationAILocked, i, "step %d uses an AI suggestion, not available at tier %s", i+1, tier.ID)
		}
	}
	return violations
}

// ReorderStep moves the step at index one place. Out-of-range moves return the
// draft unchanged.
func ReorderStep(draft models.TemplateDraft, index int, dir Direction) models.TemplateDraft {
	out := draft.Clone()
	var target int
	switch dir {
	case DirectionUp:
		target = index - 1
	case DirectionDown:
		target = index + 1
	default:
		return out
	}
	if index < 0 || index >= len(out.Steps) || target < 0 || target >= len(out.Steps) {
		return out
	}
	out.Steps[index], out.Steps[target] = out.Steps[target], out.Steps[index]
	return out
}

// AddStep appends a step. Limits are not enforced here; ValidateDraft reports them.
func AddStep(draft models.TemplateDraft, step models.Step) models.TemplateDraft {
	out := draft.Clone()
	out.Steps = append(out.Steps, step)
	return out
}

func RemoveStep(draft models.TemplateDraft, index int) models.TemplateDraft {
	out := draft.Clone()
	if index < 0 || index >= len(out.Steps) {
		return out
	}
	out.Steps = append(out.Steps[:index], out.Steps[index+1:]...)
	return out
}

// NormalizeTags case-folds, trims and de-duplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	fold := cases.Fold()
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := fold.String(strings.TrimSpace(tag))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
