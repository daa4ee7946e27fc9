package wizard

import "storefront/internal/form"

// HistoryReplace 位置变化以替换方式写入历史，不新增记录
const HistoryReplace = "replace"

// FieldView 字段展示
type FieldView struct {
	Name      string       `json:"name"`
	Label     string       `json:"label"`
	Value     string       `json:"value"`
	Trigger   form.Trigger `json:"trigger,omitempty"`
	MaxLength int          `json:"maxLength,omitempty"`
	CharCount int          `json:"charCount"`
	Touched   bool         `json:"touched"`
	Errors    []string     `json:"errors,omitempty"`
}

// StepView 步骤展示，所有步骤都会渲染，只有活动步骤可见
type StepView struct {
	ID              StepID      `json:"id"`
	Label           string      `json:"label"`
	Kind            StepKind    `json:"kind"`
	Heading         string      `json:"heading"`
	Action          string      `json:"action,omitempty"`
	Choices         []Choice    `json:"choices,omitempty"`
	Visible         bool        `json:"visible"`
	ContinueEnabled bool        `json:"continueEnabled"`
	Fields          []FieldView `json:"fields,omitempty"`
}

// View 整个向导的展示
type View struct {
	Active             StepID       `json:"active"`
	StepCount          int          `json:"stepCount"`
	IsLastStep         bool         `json:"isLastStep"`
	Location           string       `json:"location"`
	History            string       `json:"history"`
	Steps              []StepView   `json:"steps"`
	Pictures           []Picture    `json:"pictures"`
	PicturePlaceholder bool         `json:"picturePlaceholder"`
	Categories         []Category   `json:"categories,omitempty"`
	CategoryQuery      string       `json:"categoryQuery,omitempty"`
	Review             []ReviewLine `json:"review,omitempty"`
	SubmitEnabled      bool         `json:"submitEnabled"`
}

func (w *Wizard) fieldView(e fieldEntry) FieldView {
	value := e.Get(&w.record)
	state := w.fields[e.Name]
	return FieldView{
		Name:      e.Name,
		Label:     e.Label,
		Value:     value,
		Trigger:   e.Trigger,
		MaxLength: e.MaxLength,
		CharCount: form.CharCount(value),
		Touched:   state.Touched,
		Errors:    state.Errors,
	}
}

// View 渲染全部步骤，path 为向导资源地址
func (w *Wizard) View(path string) View {
	active := w.Active()
	steps := make([]StepView, 0, len(w.steps))
	for _, def := range w.steps {
		sv := StepView{
			ID:              def.ID,
			Label:           def.Label,
			Kind:            def.Kind,
			Heading:         def.Heading,
			Action:          def.Action,
			Choices:         def.Choices,
			Visible:         def.ID == active,
			ContinueEnabled: w.ContinueEnabled(def.ID),
		}
		for _, e := range w.registry.ForStep(def.ID) {
			sv.Fields = append(sv.Fields, w.fieldView(e))
		}
		steps = append(steps, sv)
	}

	v := View{
		Active:             active,
		StepCount:          w.pos.Max(),
		IsLastStep:         w.IsLastStep(),
		Location:           w.pos.Location(path),
		History:            HistoryReplace,
		Steps:              steps,
		Pictures:           w.record.Pictures,
		PicturePlaceholder: len(w.record.Pictures) == 0,
		CategoryQuery:      w.categoryQuery,
		SubmitEnabled:      active == StepReview && !w.submitting,
	}
	if active == StepCategory {
		v.Categories = filterCategories(w.categories, w.categoryQuery)
	}
	if active == StepReview {
		v.Review = w.Review()
	}
	return v
}
