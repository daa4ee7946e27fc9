package wizard

import (
	"fmt"
	"strconv"

	"storefront/internal/form"
)

// ==================== 提交 ====================

// FormField 提交表单的一个文本字段
type FormField struct {
	Name  string
	Value string
}

// Submission 发往商品接口的载荷
type Submission struct {
	Title                string
	Description          string
	PriceInCents         int64
	WarrantyType         WarrantyType
	WarrantyDurationTime int
	WarrantyDurationUnit DurationUnit
	Condition            Condition
	CategoryID           string
	Pictures             []Picture
}

// FormFields 按接口约定的顺序输出文本字段，图片单独作为文件发送
func (s *Submission) FormFields() []FormField {
	return []FormField{
		{Name: "title", Value: s.Title},
		{Name: "description", Value: s.Description},
		{Name: "priceInCents", Value: strconv.FormatInt(s.PriceInCents, 10)},
		{Name: "warrantyType", Value: string(s.WarrantyType)},
		{Name: "warrantyDurationTime", Value: strconv.Itoa(s.WarrantyDurationTime)},
		{Name: "warrantyDurationUnit", Value: string(s.WarrantyDurationUnit)},
		{Name: "condition", Value: string(s.Condition)},
		{Name: "categoryId", Value: s.CategoryID},
	}
}

// BeginSubmit 提交闸门：只能在复核页触发，同一时间只允许一次在途提交
// 整表校验失败时每个无效字段一条错误，不发起请求
func (w *Wizard) BeginSubmit() (*Submission, error) {
	if w.Active() != StepReview {
		return nil, ErrNotOnReview
	}
	if w.submitting {
		return nil, ErrSubmissionPending
	}

	errs := w.registry.ValidateAll(&w.record)
	for _, f := range errs.Fields {
		state := w.fields[f.Field]
		state.Touched = true
		state.Errors = []string{f.Message}
		w.fields[f.Field] = state
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	cents, err := form.ParseMaskedCents(w.record.Price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", w.record.Price, err)
	}

	rec := w.record
	sub := &Submission{
		Title:                rec.Title,
		Description:          rec.Description,
		PriceInCents:         cents,
		WarrantyType:         rec.Warranty.Type,
		WarrantyDurationTime: rec.Warranty.Duration.Time,
		WarrantyDurationUnit: rec.Warranty.Duration.Unit,
		Condition:            rec.Condition,
		CategoryID:           rec.CategoryID,
		Pictures:             append([]Picture(nil), rec.Pictures...),
	}
	if sub.WarrantyType == WarrantyNone {
		sub.WarrantyDurationTime = 0
	}
	if sub.WarrantyDurationUnit == "" {
		sub.WarrantyDurationUnit = UnitMonths
	}

	w.submitting = true
	return sub, nil
}

// FinishSubmit 提交结束（成功或失败）后释放闸门，记录保持不变
func (w *Wizard) FinishSubmit() {
	w.submitting = false
}
