package dto

import "storefront/internal/wizard"

// ==================== 请求 DTO ====================

// SetStepRequest 直接跳转，越界会被夹到边界
type SetStepRequest struct {
	Step int `json:"step"`
}

// ChangeFieldRequest 字段输入
type ChangeFieldRequest struct {
	Value string `json:"value"`
}

// SelectCategoryRequest 选择分类
type SelectCategoryRequest struct {
	CategoryID string `json:"categoryId" binding:"required"`
}

// SelectConditionRequest 选择成色
type SelectConditionRequest struct {
	Condition string `json:"condition" binding:"required,oneof=NEW USED REFURBISHED"`
}

// SelectWarrantyTypeRequest 选择保修类型
type SelectWarrantyTypeRequest struct {
	Type string `json:"type" binding:"required,oneof=SELLER MANUFACTURER NONE"`
}

// CategoryQuery 分类搜索
type CategoryQuery struct {
	Q string `form:"q"`
}

// ==================== 响应 DTO ====================

// WizardResponse 向导当前状态
type WizardResponse struct {
	ID   string      `json:"id"`
	View wizard.View `json:"view"`
}

// FieldChangeResponse 字段输入结果
type FieldChangeResponse struct {
	Field           wizard.FieldView `json:"field"`
	ContinueEnabled bool             `json:"continueEnabled"`
}

// PicturesResponse 图片暂存结果
type PicturesResponse struct {
	Added    []wizard.Picture `json:"added"`
	Pictures []wizard.Picture `json:"pictures"`
	Skipped  []string         `json:"skipped,omitempty"`
}

// SubmitResponse 提交结果，每条通知单独展示
type SubmitResponse struct {
	Success       bool     `json:"success"`
	Notifications []string `json:"notifications"`
	Redirect      string   `json:"redirect,omitempty"`
}
