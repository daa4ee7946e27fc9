package wizard

import (
	"fmt"

	"storefront/internal/form"
)

// ==================== 复核页 ====================

// ReviewGroup 复核页的摘要分组
type ReviewGroup string

const (
	GroupPhotos      ReviewGroup = "photos"
	GroupTitle       ReviewGroup = "title"
	GroupPrice       ReviewGroup = "price"
	GroupDescription ReviewGroup = "description"
	GroupWarranty    ReviewGroup = "warranty"
	GroupCondition   ReviewGroup = "condition"
	GroupCategory    ReviewGroup = "category"
)

// editRange 分组对应的编辑步骤范围，跳转到 start，到达 end 后继续返回复核页
type editRange struct {
	start StepID
	end   StepID
}

var reviewOrder = []ReviewGroup{
	GroupPhotos, GroupTitle, GroupPrice, GroupDescription, GroupWarranty, GroupCondition, GroupCategory,
}

var editRanges = map[ReviewGroup]editRange{
	GroupPhotos:      {StepPictures, StepPictures},
	GroupTitle:       {StepTitle, StepTitle},
	GroupPrice:       {StepPrice, StepPrice},
	GroupDescription: {StepDescription, StepDescription},
	GroupWarranty:    {StepWarrantyType, StepWarrantyDuration},
	GroupCondition:   {StepCondition, StepCondition},
	GroupCategory:    {StepCategory, StepCategory},
}

// ReviewLine 复核摘要的一行
type ReviewLine struct {
	Group   ReviewGroup `json:"group"`
	Label   string      `json:"label"`
	Summary string      `json:"summary"`
	Step    StepID      `json:"step"`
}

// Review 每个分组一行摘要
func (w *Wizard) Review() []ReviewLine {
	lines := make([]ReviewLine, 0, len(reviewOrder))
	for _, g := range reviewOrder {
		lines = append(lines, ReviewLine{
			Group:   g,
			Label:   reviewLabel(g),
			Summary: w.summary(g),
			Step:    editRanges[g].start,
		})
	}
	return lines
}

func reviewLabel(g ReviewGroup) string {
	switch g {
	case GroupPhotos:
		return "Fotos"
	case GroupTitle:
		return "Título"
	case GroupPrice:
		return "Preço"
	case GroupDescription:
		return "Descrição"
	case GroupWarranty:
		return "Garantia"
	case GroupCondition:
		return "Condição"
	case GroupCategory:
		return "Categoria"
	}
	return string(g)
}

func (w *Wizard) summary(g ReviewGroup) string {
	rec := &w.record
	switch g {
	case GroupPhotos:
		if len(rec.Pictures) == 1 {
			return "1 foto"
		}
		return fmt.Sprintf("%d fotos", len(rec.Pictures))
	case GroupTitle:
		return rec.Title
	case GroupPrice:
		if rec.Price == "" {
			return ""
		}
		return "R$ " + rec.Price
	case GroupDescription:
		return form.Truncate(rec.Description, 120)
	case GroupWarranty:
		if rec.Warranty.Type == WarrantyNone || rec.Warranty.Type == "" {
			return rec.Warranty.Type.Label()
		}
		return fmt.Sprintf("%s: %d %s", rec.Warranty.Type.Label(),
			rec.Warranty.Duration.Time, rec.Warranty.Duration.Unit.Label())
	case GroupCondition:
		return rec.Condition.Label()
	case GroupCategory:
		if rec.CategoryID == "" {
			return ""
		}
		return w.categoryName(rec.CategoryID)
	}
	return ""
}

// JumpToEdit 从复核页跳到分组对应的步骤，不经过校验
func (w *Wizard) JumpToEdit(group ReviewGroup) error {
	r, ok := editRanges[group]
	if !ok {
		return ErrUnknownGroup
	}
	if w.Active() != StepReview {
		return ErrNotOnReview
	}
	if w.submitting {
		return ErrSubmissionPending
	}
	w.pos.Set(int(r.start))
	w.returnUntil = r.end
	return nil
}
