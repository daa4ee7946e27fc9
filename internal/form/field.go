package form

import (
	"unicode/utf8"
)

// Trigger 校验时机
type Trigger string

const (
	// OnChange 每次输入都校验，错误直接影响“继续”按钮
	OnChange Trigger = "onChange"
	// OnDemand 只在点击“继续”或提交时校验
	OnDemand Trigger = "onDemand"
)

// Binding 字段绑定：规则 + 输入副作用（截断、掩码）
// R 为共享记录类型，Get/Set 只负责把值读写到记录上
type Binding[R any] struct {
	Name      string
	Label     string
	Rules     []Rule
	Trigger   Trigger
	MaxLength int                     // >0 时超出部分静默截断
	Format    func(raw string) string // 输入掩码，nil 表示原样
	Get       func(rec *R) string
	Set       func(rec *R, value string) error
}

// FieldState 字段的交互状态
type FieldState struct {
	Touched bool     `json:"touched"`
	Edited  bool     `json:"edited"`
	Errors  []string `json:"errors,omitempty"`
}

// Normalize 处理输入副作用：先掩码，再截断
func (b *Binding[R]) Normalize(raw string) string {
	value := raw
	if b.Format != nil {
		value = b.Format(value)
	}
	if b.MaxLength > 0 {
		value = Truncate(value, b.MaxLength)
	}
	return value
}

// Validate 用当前记录里的值执行规则
func (b *Binding[R]) Validate(rec *R) []string {
	return Evaluate(b.Rules, b.Get(rec), rec)
}

// Change 处理一次输入：规范化、写入记录、按触发方式校验
// 返回写入后的值；Set 失败时错误会记入状态而不是中断流程
func (b *Binding[R]) Change(rec *R, state *FieldState, raw string) string {
	value := b.Normalize(raw)
	state.Touched = true
	state.Edited = true

	if err := b.Set(rec, value); err != nil {
		state.Errors = []string{err.Error()}
		return value
	}

	if b.Trigger == OnChange {
		state.Errors = b.Validate(rec)
	} else {
		state.Errors = nil
	}
	return b.Get(rec)
}

// Truncate 按 rune 截断
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// CharCount 字符计数（按 rune）
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}
