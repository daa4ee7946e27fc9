package wizard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/form"
)

// ==================== 字段名 ====================

const (
	FieldTitle        = "title"
	FieldCategory     = "categoryId"
	FieldCondition    = "condition"
	FieldPictures     = "pictures"
	FieldDescription  = "description"
	FieldPrice        = "price"
	FieldWarrantyType = "warranty.type"
	FieldWarrantyTime = "warranty.duration.time"
	FieldWarrantyUnit = "warranty.duration.unit"
)

const (
	titleMinLength       = 3
	titleMaxLength       = 60
	descriptionMinLength = 16
	descriptionMaxLength = 4000
)

type binding = form.Binding[FormRecord]

// fieldEntry 字段绑定及其所属步骤
// selection 为 true 的字段只能通过步骤内的选择操作写入
type fieldEntry struct {
	step      StepID
	selection bool
	*binding
}

// Registry 字段注册表，顺序即整表校验与错误提示的顺序
type Registry struct {
	entries []fieldEntry
	index   map[string]int
}

func record(v any) *FormRecord {
	rec, _ := v.(*FormRecord)
	if rec == nil {
		return &FormRecord{}
	}
	return rec
}

// DefaultRegistry 上架向导的字段定义
func DefaultRegistry() *Registry {
	r := &Registry{index: map[string]int{}}

	r.register(StepTitle, &binding{
		Name:    FieldTitle,
		Label:   "Indique seu produto, marca e modelo",
		Trigger: form.OnChange,
		Rules: []form.Rule{
			form.Required("O título é obrigatório."),
			form.MinLength(titleMinLength, fmt.Sprintf("O título deve ter pelo menos %d caracteres.", titleMinLength)),
			form.MaxLength(titleMaxLength, fmt.Sprintf("O título deve ter no máximo %d caracteres.", titleMaxLength)),
		},
		MaxLength: titleMaxLength,
		Get:       func(rec *FormRecord) string { return rec.Title },
		Set:       func(rec *FormRecord, v string) error { rec.Title = v; return nil },
	})

	r.registerSelection(StepCategory, &binding{
		Name:  FieldCategory,
		Label: "Qual opção define o seu produto?",
		Rules: []form.Rule{
			form.Required("A categoria é obrigatória."),
		},
		Get: func(rec *FormRecord) string { return rec.CategoryID },
		Set: func(rec *FormRecord, v string) error { return ErrSelectionOnly },
	})

	r.registerSelection(StepCondition, &binding{
		Name:  FieldCondition,
		Label: "O seu produto é...",
		Rules: []form.Rule{
			form.Required("A condição é obrigatória."),
			form.Custom(func(v string, _ any) bool { return Condition(v).Valid() }, "Condição inválida."),
		},
		Get: func(rec *FormRecord) string { return string(rec.Condition) },
		Set: func(rec *FormRecord, v string) error { return ErrSelectionOnly },
	})

	r.registerSelection(StepPictures, &binding{
		Name:  FieldPictures,
		Label: "Fotos",
		Rules: []form.Rule{
			form.Custom(func(_ string, v any) bool { return len(record(v).Pictures) >= 1 },
				"É necessário adicionar pelo menos uma foto."),
		},
		Get: func(rec *FormRecord) string { return strconv.Itoa(len(rec.Pictures)) },
		Set: func(rec *FormRecord, v string) error { return ErrSelectionOnly },
	})

	r.register(StepDescription, &binding{
		Name:    FieldDescription,
		Label:   "Descreva seu produto",
		Trigger: form.OnChange,
		Rules: []form.Rule{
			form.Required("A descrição é obrigatória."),
			form.MinLength(descriptionMinLength, fmt.Sprintf("A descrição deve ter pelo menos %d caracteres.", descriptionMinLength)),
			form.MaxLength(descriptionMaxLength, fmt.Sprintf("A descrição deve ter no máximo %d caracteres.", descriptionMaxLength)),
		},
		MaxLength: descriptionMaxLength,
		Get:       func(rec *FormRecord) string { return rec.Description },
		Set:       func(rec *FormRecord, v string) error { rec.Description = v; return nil },
	})

	r.register(StepPrice, &binding{
		Name:    FieldPrice,
		Label:   "Preço",
		Trigger: form.OnDemand,
		Rules: []form.Rule{
			form.Required("O preço é obrigatório."),
			form.Custom(func(v string, _ any) bool { return form.DigitsToCents(v) > 0 }, "O preço deve ser maior que zero."),
		},
		Format: form.MaskCurrency,
		Get:    func(rec *FormRecord) string { return rec.Price },
		Set:    func(rec *FormRecord, v string) error { rec.Price = v; return nil },
	})

	r.registerSelection(StepWarrantyType, &binding{
		Name:  FieldWarrantyType,
		Label: "Você oferece garantia?",
		Rules: []form.Rule{
			form.Required("O tipo de garantia é obrigatório."),
			form.Custom(func(v string, _ any) bool { return WarrantyType(v).Valid() }, "Tipo de garantia inválido."),
		},
		Get: func(rec *FormRecord) string { return string(rec.Warranty.Type) },
		Set: func(rec *FormRecord, v string) error { return ErrSelectionOnly },
	})

	r.register(StepWarrantyDuration, &binding{
		Name:    FieldWarrantyTime,
		Label:   "Quanto tempo de garantia você oferece?",
		Trigger: form.OnDemand,
		Rules: []form.Rule{
			form.Custom(func(v string, rv any) bool {
				return record(rv).Warranty.Type == WarrantyNone || v != ""
			}, "A duração da garantia é obrigatória."),
			form.Min(1, "A duração da garantia deve ser maior que 0."),
		},
		Get: func(rec *FormRecord) string { return rec.durationTimeText() },
		Set: func(rec *FormRecord, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				rec.Warranty.Duration.Time = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.New("A duração da garantia deve ser um número inteiro.")
			}
			rec.Warranty.Duration.Time = n
			return nil
		},
	})

	r.register(StepWarrantyDuration, &binding{
		Name:    FieldWarrantyUnit,
		Label:   "Unidade",
		Trigger: form.OnChange,
		Rules: []form.Rule{
			form.Custom(func(v string, rv any) bool {
				return record(rv).Warranty.Type == WarrantyNone || DurationUnit(v).Valid()
			}, "Unidade de duração inválida."),
		},
		Get: func(rec *FormRecord) string { return string(rec.Warranty.Duration.Unit) },
		Set: func(rec *FormRecord, v string) error {
			unit := DurationUnit(strings.ToUpper(strings.TrimSpace(v)))
			if !unit.Valid() {
				return errors.New("Unidade de duração inválida.")
			}
			rec.Warranty.Duration.Unit = unit
			return nil
		},
	})

	return r
}

func (r *Registry) register(step StepID, b *binding) {
	r.index[b.Name] = len(r.entries)
	r.entries = append(r.entries, fieldEntry{step: step, binding: b})
}

func (r *Registry) registerSelection(step StepID, b *binding) {
	r.register(step, b)
	r.entries[len(r.entries)-1].selection = true
}

// Lookup 按名称查找字段
func (r *Registry) Lookup(name string) (fieldEntry, bool) {
	i, ok := r.index[name]
	if !ok {
		return fieldEntry{}, false
	}
	return r.entries[i], true
}

// ForStep 某一步拥有的字段，按注册顺序
func (r *Registry) ForStep(step StepID) []fieldEntry {
	var out []fieldEntry
	for _, e := range r.entries {
		if e.step == step {
			out = append(out, e)
		}
	}
	return out
}

// ValidateStep 校验某一步的全部字段
func (r *Registry) ValidateStep(step StepID, rec *FormRecord) *form.ValidationErrors {
	errs := &form.ValidationErrors{}
	for _, e := range r.ForStep(step) {
		if msgs := e.Validate(rec); len(msgs) > 0 {
			errs.Add(e.Name, msgs[0])
		}
	}
	return errs
}

// ValidateAll 整表校验，每个无效字段一条错误
func (r *Registry) ValidateAll(rec *FormRecord) *form.ValidationErrors {
	errs := &form.ValidationErrors{}
	for _, e := range r.entries {
		if msgs := e.Validate(rec); len(msgs) > 0 {
			errs.Add(e.Name, msgs[0])
		}
	}
	return errs
}
