package model

import (
	"time"

	"gorm.io/datatypes"

	"storefront/internal/wizard"
)

// ==================== 状态常量 ====================

const (
	WizardStatusActive     = "active"
	WizardStatusSubmitting = "submitting"
	WizardStatusSubmitted  = "submitted"
	WizardStatusCancelled  = "cancelled"
)

// ListingWizard 上架向导会话
// 记录、字段状态、暂存图片都在 State 里，整块读写
type ListingWizard struct {
	BaseModel
	PublicID     string                           `gorm:"size:36;uniqueIndex;not null" json:"id"`
	OwnerSubject string                           `gorm:"size:128;index;not null" json:"-"`
	ActiveStep   int                              `gorm:"default:1" json:"active_step"`
	Status       string                           `gorm:"size:16;index" json:"status"`
	State        datatypes.JSONType[wizard.State] `json:"-"`
	LastActiveAt time.Time                        `gorm:"index" json:"last_active_at"`
	SubmittedAt  *time.Time                       `json:"submitted_at,omitempty"`
	LastError    string                           `gorm:"size:1024" json:"last_error,omitempty"`
}

func (ListingWizard) TableName() string { return "listing_wizards" }

// Wizard 还原领域对象
func (m *ListingWizard) Wizard() *wizard.Wizard {
	return wizard.FromState(m.State.Data())
}

// Apply 把领域对象写回模型
func (m *ListingWizard) Apply(w *wizard.Wizard) {
	m.State = datatypes.NewJSONType(w.State())
	m.ActiveStep = int(w.Active())
	if w.Submitting() {
		m.Status = WizardStatusSubmitting
	} else if m.Status == WizardStatusSubmitting {
		m.Status = WizardStatusActive
	}
}

// IsOpen 会话仍可操作
func (m *ListingWizard) IsOpen() bool {
	return m.Status == WizardStatusActive || m.Status == WizardStatusSubmitting
}
