package domain

import (
	"time"
)

// Onboarding wizard steps, in strict order.
const (
	StepSubscription = 1
	StepDomain       = 2
	StepCompany      = 3
	StepPresets      = 4
	StepConfirmation = 5

	TotalOnboardingSteps = 5
)

var StepNames = map[int]string{
	StepSubscription: "Subscription",
	StepDomain:       "Domain",
	StepCompany:      "Company profile",
	StepPresets:      "Preset provisioning",
	StepConfirmation: "Confirmation",
}

// OnboardingProgress is 1:1 with a tenant. CurrentStep is always the
// smallest step not yet completed; CompletedSteps only ever grows.
type OnboardingProgress struct {
	ID             string            `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID       string            `gorm:"type:uuid;not null;uniqueIndex" json:"tenant_id"`
	CurrentStep    int               `gorm:"not null;default:1" json:"current_step"`
	CompletedSteps IntList           `gorm:"type:jsonb" json:"completed_steps"`
	StepData       JSONB             `gorm:"type:jsonb" json:"step_data,omitempty"`
	PresetProgress PresetProgressMap `gorm:"type:jsonb" json:"preset_progress,omitempty"`
	CreatedAt      time.Time         `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
	Tenant         *Tenant           `gorm:"foreignKey:TenantID" json:"-"`
}

func (OnboardingProgress) TableName() string {
	return "onboarding_progress"
}

// PriorStepsCompleted reports whether every step before n is done.
func (p *OnboardingProgress) PriorStepsCompleted(n int) bool {
	for i := 1; i < n; i++ {
		if !p.CompletedSteps.Contains(i) {
			return false
		}
	}
	return true
}

// MarkCompleted records step n as done and recomputes CurrentStep as the
// smallest step not yet completed.
func (p *OnboardingProgress) MarkCompleted(n int) {
	p.CompletedSteps = p.CompletedSteps.Add(n)
	step := 1
	for p.CompletedSteps.Contains(step) {
		step++
	}
	p.CurrentStep = step
}

// OverallPercent is completed steps over total, as an integer percentage.
func (p *OnboardingProgress) OverallPercent() int {
	return len(p.CompletedSteps) * 100 / TotalOnboardingSteps
}

// Preset install statuses persisted into PresetProgress.
const (
	PresetStatusPending    = "pending"
	PresetStatusInProgress = "in_progress"
	PresetStatusCompleted  = "completed"
	PresetStatusFailed     = "failed"
)
