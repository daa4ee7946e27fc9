package form

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== 规则 ====================

func TestRule_Passes(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		value string
		want  bool
	}{
		{"required 空值", Required("x"), "", false},
		{"required 空白", Required("x"), "   ", false},
		{"required 有值", Required("x"), "a", true},
		{"minLength 空值跳过", MinLength(3, "x"), "", true},
		{"minLength 不足", MinLength(3, "x"), "ab", false},
		{"minLength 按字符计", MinLength(3, "x"), "ção", true},
		{"maxLength 超出", MaxLength(3, "x"), "abcd", false},
		{"maxLength 等于", MaxLength(3, "x"), "abc", true},
		{"min 空值跳过", Min(1, "x"), "", true},
		{"min 小于", Min(1, "x"), "0", false},
		{"min 非数字", Min(1, "x"), "abc", false},
		{"min 满足", Min(1, "x"), "12", true},
		{"pattern 匹配", Pattern(`^\d{5}-\d{3}$`, "x"), "01310-100", true},
		{"pattern 不匹配", Pattern(`^\d{5}-\d{3}$`, "x"), "0131", false},
		{"pattern 空值跳过", Pattern(`^\d+$`, "x"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Passes(tt.value, nil))
		})
	}
}

func TestCustomRule_ReceivesRecord(t *testing.T) {
	type rec struct{ skip bool }
	rule := Custom(func(v string, r any) bool {
		return r.(*rec).skip || v != ""
	}, "obrigatório")

	assert.False(t, rule.Passes("", &rec{}))
	assert.True(t, rule.Passes("", &rec{skip: true}))
}

func TestEvaluate_KeepsDeclarationOrder(t *testing.T) {
	rules := []Rule{
		Required("obrigatório"),
		MinLength(3, "curto"),
		Pattern(`^\d+$`, "só números"),
	}
	assert.Equal(t, []string{"curto", "só números"}, Evaluate(rules, "ab", nil))
	assert.Empty(t, Evaluate(rules, "123", nil))
}

func TestValidationErrors(t *testing.T) {
	errs := &ValidationErrors{}
	assert.NoError(t, errs.OrNil())

	errs.Add("title", "O título é obrigatório.")
	errs.Add("price", "O preço é obrigatório.")

	err := errs.OrNil()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
	assert.Equal(t, []string{"O título é obrigatório.", "O preço é obrigatório."}, errs.Messages())
}

// ==================== 字段绑定 ====================

type sample struct {
	Name  string
	Price string
}

func nameBinding() *Binding[sample] {
	return &Binding[sample]{
		Name:      "name",
		Trigger:   OnChange,
		MaxLength: 5,
		Rules:     []Rule{Required("obrigatório"), MinLength(3, "curto")},
		Get:       func(r *sample) string { return r.Name },
		Set:       func(r *sample, v string) error { r.Name = v; return nil },
	}
}

func TestBinding_ChangeTruncatesAndValidates(t *testing.T) {
	b := nameBinding()
	rec := &sample{}
	var state FieldState

	got := b.Change(rec, &state, "ab")
	assert.Equal(t, "ab", got)
	assert.True(t, state.Touched)
	assert.Equal(t, []string{"curto"}, state.Errors)

	got = b.Change(rec, &state, "abcdefgh")
	assert.Equal(t, "abcde", got)
	assert.Equal(t, "abcde", rec.Name)
	assert.Empty(t, state.Errors)
}

func TestBinding_OnDemandDoesNotValidateOnChange(t *testing.T) {
	b := &Binding[sample]{
		Name:    "price",
		Trigger: OnDemand,
		Format:  MaskCurrency,
		Rules:   []Rule{Custom(func(v string, _ any) bool { return DigitsToCents(v) > 0 }, "maior que zero")},
		Get:     func(r *sample) string { return r.Price },
		Set:     func(r *sample, v string) error { r.Price = v; return nil },
	}
	rec := &sample{}
	state := FieldState{Errors: []string{"antigo"}}

	got := b.Change(rec, &state, "0")
	assert.Equal(t, "0,00", got)
	assert.Empty(t, state.Errors)
	assert.Equal(t, []string{"maior que zero"}, b.Validate(rec))
}

func TestTruncate_ByRune(t *testing.T) {
	assert.Equal(t, "ção", Truncate("çãoxyz", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, 3, CharCount("ção"))
}

// ==================== 掩码 ====================

func TestMaskCurrency(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"10050", "100,50"},
		{"5", "0,05"},
		{"", "0,00"},
		{"R$ 1.234,56", "1.234,56"},
		{"abc", "0,00"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskCurrency(tt.raw))
		})
	}
}

func TestParseMaskedCents(t *testing.T) {
	cents, err := ParseMaskedCents("100,50")
	require.NoError(t, err)
	assert.Equal(t, int64(10050), cents)

	cents, err = ParseMaskedCents("1.234,56")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), cents)

	_, err = ParseMaskedCents("")
	assert.Error(t, err)
}

func TestMaskCurrency_RoundTrip(t *testing.T) {
	masked := MaskCurrency("10050")
	cents, err := ParseMaskedCents(masked)
	require.NoError(t, err)
	assert.Equal(t, int64(10050), cents)
}

func TestDigitsToCents_DropsOverflowDigits(t *testing.T) {
	long := strings.Repeat("9", 20)
	assert.Equal(t, int64(9999999999999), DigitsToCents(long))
}

func TestMaskPostalCode(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		ready bool
	}{
		{"0131", "0131", false},
		{"01310100", "01310-100", true},
		{"01310-100", "01310-100", true},
		{"013101009999", "01310-100", true},
		{"ab01c", "01", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskPostalCode(tt.raw))
			assert.Equal(t, tt.ready, PostalCodeReady(tt.raw))
		})
	}
}
