package form

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ==================== 货币掩码 ====================

// 超过该位数的输入会被丢弃，避免 float64 精度问题
const maxCurrencyDigits = 13

var brl = message.NewPrinter(language.BrazilianPortuguese)

// OnlyDigits 去除所有非数字字符
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DigitsToCents 原始输入的数字按“分”解释
func DigitsToCents(raw string) int64 {
	digits := OnlyDigits(raw)
	if len(digits) > maxCurrencyDigits {
		digits = digits[:maxCurrencyDigits]
	}
	if digits == "" {
		return 0
	}
	cents, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return cents
}

// FormatCents 以 pt-BR 格式显示金额，不带货币符号，例如 10050 -> "100,50"
func FormatCents(cents int64) string {
	return brl.Sprint(number.Decimal(float64(cents)/100, number.Scale(2)))
}

// MaskCurrency 输入掩码：去掉非数字，按分解释，再格式化
func MaskCurrency(raw string) string {
	return FormatCents(DigitsToCents(raw))
}

// ParseMaskedCents 从掩码文本解析出分
// 先把小数逗号规范成点，再去掉所有非数字
func ParseMaskedCents(masked string) (int64, error) {
	clean := OnlyDigits(strings.ReplaceAll(masked, ",", "."))
	if clean == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(clean, 10, 64)
}

// ==================== 邮编掩码 ====================

// PostalCodeDigits 邮编有效位数，达到后触发查询
const PostalCodeDigits = 8

// MaskPostalCode 只保留数字，满 8 位时插入分隔符 00000-000
func MaskPostalCode(raw string) string {
	digits := OnlyDigits(raw)
	if len(digits) > PostalCodeDigits {
		digits = digits[:PostalCodeDigits]
	}
	if len(digits) == PostalCodeDigits {
		return digits[:5] + "-" + digits[5:]
	}
	return digits
}

// PostalCodeReady 邮编是否已满位，可以发起查询
func PostalCodeReady(raw string) bool {
	return len(OnlyDigits(raw)) >= PostalCodeDigits
}
