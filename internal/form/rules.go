package form

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ==================== 规则定义 ====================

// RuleKind 规则类型
type RuleKind string

const (
	RuleRequired  RuleKind = "required"
	RuleMinLength RuleKind = "minLength"
	RuleMaxLength RuleKind = "maxLength"
	RuleMin       RuleKind = "min"
	RulePattern   RuleKind = "pattern"
	RuleCustom    RuleKind = "custom"
)

// Rule 单条校验规则
// Check 的第二个参数是整条记录，用于跨字段规则（例如保修类型为 NONE 时时长可空）
type Rule struct {
	Kind    RuleKind
	Value   int
	Pattern *regexp.Regexp
	Check   func(value string, record any) bool
	Message string
}

// Required 必填
func Required(message string) Rule {
	return Rule{Kind: RuleRequired, Message: message}
}

// MinLength 最小字符数（按 rune 计）
func MinLength(n int, message string) Rule {
	return Rule{Kind: RuleMinLength, Value: n, Message: message}
}

// MaxLength 最大字符数（按 rune 计）
func MaxLength(n int, message string) Rule {
	return Rule{Kind: RuleMaxLength, Value: n, Message: message}
}

// Min 最小整数值
func Min(n int, message string) Rule {
	return Rule{Kind: RuleMin, Value: n, Message: message}
}

// Pattern 正则匹配
func Pattern(expr string, message string) Rule {
	return Rule{Kind: RulePattern, Pattern: regexp.MustCompile(expr), Message: message}
}

// Custom 自定义规则
func Custom(check func(value string, record any) bool, message string) Rule {
	return Rule{Kind: RuleCustom, Check: check, Message: message}
}

// ==================== 通用校验器 ====================

var validate = validator.New()

// Passes 判断单条规则是否通过
// 与表单库的行为一致：长度、最小值、正则规则在值为空时跳过，由 required 负责空值
func (r Rule) Passes(value string, record any) bool {
	switch r.Kind {
	case RuleRequired:
		return validate.Var(strings.TrimSpace(value), "required") == nil
	case RuleMinLength:
		if value == "" {
			return true
		}
		return validate.Var(value, fmt.Sprintf("min=%d", r.Value)) == nil
	case RuleMaxLength:
		if value == "" {
			return true
		}
		return validate.Var(value, fmt.Sprintf("max=%d", r.Value)) == nil
	case RuleMin:
		if value == "" {
			return true
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		return validate.Var(n, fmt.Sprintf("gte=%d", r.Value)) == nil
	case RulePattern:
		if value == "" {
			return true
		}
		return r.Pattern != nil && r.Pattern.MatchString(value)
	case RuleCustom:
		return r.Check == nil || r.Check(value, record)
	}
	return true
}

// Evaluate 按声明顺序执行规则，返回所有失败信息
func Evaluate(rules []Rule, value string, record any) []string {
	var messages []string
	for _, rule := range rules {
		if !rule.Passes(value, record) {
			messages = append(messages, rule.Message)
		}
	}
	return messages
}

// ==================== 字段错误集合 ====================

// FieldError 字段错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors 整表校验失败，每个字段保留第一条错误
type ValidationErrors struct {
	Fields []FieldError
}

func (e *ValidationErrors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add 追加一个字段错误
func (e *ValidationErrors) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Messages 每个字段一条提示
func (e *ValidationErrors) Messages() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Message)
	}
	return out
}

// OrNil 没有错误时返回 nil，方便直接作为 error 返回
func (e *ValidationErrors) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
