package wizard

import (
	"strings"

	"storefront/internal/form"
)

var (
	defaultSteps    = DefaultSteps()
	defaultRegistry = DefaultRegistry()
)

// ==================== 持久化状态 ====================

// State 向导的可持久化快照，服务层整块读写
type State struct {
	Active        int                        `json:"active"`
	Record        FormRecord                 `json:"record"`
	Fields        map[string]form.FieldState `json:"fields"`
	ReturnUntil   StepID                     `json:"returnUntil,omitempty"`
	Categories    []Category                 `json:"categories,omitempty"`
	CategoryQuery string                     `json:"categoryQuery,omitempty"`
	Submitting    bool                       `json:"submitting"`
}

// ==================== 向导 ====================

// Wizard 上架向导：步骤序列 + 共享记录 + 字段状态
// 不是并发安全的，由服务层按向导加锁
type Wizard struct {
	steps    []StepDefinition
	registry *Registry
	pos      *Position

	record FormRecord
	fields map[string]form.FieldState

	// 从复核页跳转编辑时，活动步骤到达该步骤后“继续”返回复核页
	returnUntil StepID

	categories    []Category
	categoryQuery string
	submitting    bool
}

// New 进入流程时创建
func New() *Wizard {
	return &Wizard{
		steps:    defaultSteps,
		registry: defaultRegistry,
		pos:      NewPosition(int(StepDescribeHero), len(defaultSteps)),
		record:   newRecord(),
		fields:   map[string]form.FieldState{},
	}
}

// FromState 从快照恢复
func FromState(s State) *Wizard {
	w := New()
	w.pos.Set(s.Active)
	w.record = s.Record
	if w.record.Pictures == nil {
		w.record.Pictures = []Picture{}
	}
	if s.Fields != nil {
		w.fields = s.Fields
	}
	w.returnUntil = s.ReturnUntil
	w.categories = s.Categories
	w.categoryQuery = s.CategoryQuery
	w.submitting = s.Submitting
	return w
}

// State 导出快照
func (w *Wizard) State() State {
	return State{
		Active:        w.pos.Active(),
		Record:        w.record,
		Fields:        w.fields,
		ReturnUntil:   w.returnUntil,
		Categories:    w.categories,
		CategoryQuery: w.categoryQuery,
		Submitting:    w.submitting,
	}
}

// Record 共享记录的副本，所有步骤都可读
func (w *Wizard) Record() FormRecord { return w.record }

// Active 当前步骤
func (w *Wizard) Active() StepID { return StepID(w.pos.Active()) }

// IsLastStep 是否位于最后一步
func (w *Wizard) IsLastStep() bool { return w.pos.IsLast() }

// Submitting 是否有提交在途
func (w *Wizard) Submitting() bool { return w.submitting }

// Step 按编号取步骤定义
func (w *Wizard) Step(id StepID) (StepDefinition, bool) {
	for _, s := range w.steps {
		if s.ID == id {
			return s, true
		}
	}
	return StepDefinition{}, false
}

// ==================== 导航 ====================

// Restore 从地址栏参数恢复位置
func (w *Wizard) Restore(raw string) { w.pos.Restore(raw) }

// NextStep 前进一步；处于复核跳转编辑中且已到达该组最后一步时回到复核页
func (w *Wizard) NextStep() {
	if w.returnUntil != 0 && w.Active() >= w.returnUntil {
		w.returnUntil = 0
		w.pos.Set(int(StepReview))
		return
	}
	w.pos.Next()
	if w.Active() == StepReview {
		w.returnUntil = 0
	}
}

// PrevStep 后退一步
func (w *Wizard) PrevStep() { w.pos.Prev() }

// SetStep 直接跳转，越界时夹到边界
func (w *Wizard) SetStep(n int) {
	w.pos.Set(n)
	if w.Active() == StepReview {
		w.returnUntil = 0
	}
}

// Reset 回到初始步骤，记录保持不变
func (w *Wizard) Reset() {
	w.returnUntil = 0
	w.pos.Reset()
}

// ==================== 字段输入 ====================

// ChangeField 处理一次字段输入，只允许当前步骤拥有的字段
func (w *Wizard) ChangeField(name, raw string) (FieldView, error) {
	entry, ok := w.registry.Lookup(name)
	if !ok {
		return FieldView{}, ErrUnknownField
	}
	if entry.step != w.Active() {
		return FieldView{}, ErrFieldNotOnStep
	}
	if entry.selection {
		return FieldView{}, ErrSelectionOnly
	}

	state := w.fields[name]
	entry.Change(&w.record, &state, raw)
	w.fields[name] = state
	return w.fieldView(entry), nil
}

// Continue 点击“继续”：校验当前步骤全部字段，通过后前进
// 失败时错误写入字段状态，位置不变
func (w *Wizard) Continue() error {
	active := w.Active()
	errs := w.registry.ValidateStep(active, &w.record)
	for _, e := range w.registry.ForStep(active) {
		state := w.fields[e.Name]
		state.Touched = true
		state.Errors = e.Validate(&w.record)
		w.fields[e.Name] = state
	}
	if err := errs.OrNil(); err != nil {
		return err
	}
	w.NextStep()
	return nil
}

// ContinueEnabled 继续按钮是否可用
// 只有输入即校验的字段会禁用按钮，按需校验的字段在点击时才报错
func (w *Wizard) ContinueEnabled(step StepID) bool {
	for _, e := range w.registry.ForStep(step) {
		if e.Trigger == form.OnDemand {
			continue
		}
		if len(e.Validate(&w.record)) > 0 {
			return false
		}
	}
	return true
}

// ==================== 单选步骤 ====================

// Select 在单选步骤上选择一个选项，由步骤自身决定如何导航
func (w *Wizard) Select(step StepID, value string) error {
	def, ok := w.Step(step)
	if !ok || def.Select == nil {
		return ErrInvalidChoice
	}
	if w.Active() != step {
		return ErrFieldNotOnStep
	}
	if step == StepCategory && len(w.categories) > 0 && !w.hasCategory(value) {
		return ErrInvalidChoice
	}

	if err := def.Select(&w.record, w, value); err != nil {
		return err
	}
	for _, e := range w.registry.ForStep(step) {
		w.fields[e.Name] = form.FieldState{Touched: true, Edited: true}
	}
	if w.record.Warranty.Type == WarrantyNone {
		delete(w.fields, FieldWarrantyTime)
	}
	return nil
}

// ==================== 分类 ====================

// HasCategories 分类是否已缓存
func (w *Wizard) HasCategories() bool { return len(w.categories) > 0 }

// SetCategories 缓存远程分类列表
func (w *Wizard) SetCategories(cats []Category) { w.categories = cats }

// FilterCategories 按空格分隔的关键词过滤，任一关键词命中即保留（不区分大小写）
func (w *Wizard) FilterCategories(query string) []Category {
	w.categoryQuery = query
	return filterCategories(w.categories, query)
}

func filterCategories(cats []Category, query string) []Category {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return cats
	}
	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		name := strings.ToLower(c.Name)
		for _, term := range terms {
			if strings.Contains(name, term) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func (w *Wizard) hasCategory(id string) bool {
	for _, c := range w.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (w *Wizard) categoryName(id string) string {
	for _, c := range w.categories {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}

// ==================== 图片 ====================

// FilterNewPictures 过滤出需要暂存的文件名：已存在的和同批重复的都丢弃
func (w *Wizard) FilterNewPictures(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || w.record.HasPicture(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// AddPictures 追加图片，按文件名去重，返回实际加入的图片
func (w *Wizard) AddPictures(pics []Picture) ([]Picture, error) {
	if w.Active() != StepPictures {
		return nil, ErrFieldNotOnStep
	}
	added := make([]Picture, 0, len(pics))
	for _, p := range pics {
		if p.Name == "" || w.record.HasPicture(p.Name) {
			continue
		}
		w.record.Pictures = append(w.record.Pictures, p)
		added = append(added, p)
	}
	w.touchPictures()
	return added, nil
}

// RemovePicture 按文件名移除一张图片
func (w *Wizard) RemovePicture(name string) (Picture, error) {
	if w.Active() != StepPictures {
		return Picture{}, ErrFieldNotOnStep
	}
	for i, p := range w.record.Pictures {
		if p.Name == name {
			w.record.Pictures = append(w.record.Pictures[:i:i], w.record.Pictures[i+1:]...)
			w.touchPictures()
			return p, nil
		}
	}
	return Picture{}, ErrPictureNotFound
}

func (w *Wizard) touchPictures() {
	entry, _ := w.registry.Lookup(FieldPictures)
	w.fields[FieldPictures] = form.FieldState{
		Touched: true,
		Edited:  true,
		Errors:  entry.Validate(&w.record),
	}
}

// StorageKeys 所有已暂存图片的存储键
func (w *Wizard) StorageKeys() []string {
	keys := make([]string, 0, len(w.record.Pictures))
	for _, p := range w.record.Pictures {
		if p.StorageKey != "" {
			keys = append(keys, p.StorageKey)
		}
	}
	return keys
}
