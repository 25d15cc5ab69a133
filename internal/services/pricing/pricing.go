// Package pricing содержит чистую денежную арифметику формы: скидку и перевод в minor units.
// Результат сервера авторитетен; превью на клиенте только косметика.
package pricing

import (
	"math"
	"strings"

	"bif_backend/internal/models"

	"github.com/shopspring/decimal"
)

// DiscountKind - вид скидки формы
type DiscountKind string

const (
	DiscountFixed   DiscountKind = "fixed"
	DiscountPercent DiscountKind = "percent"
)

// MinorUnitScale - внутренний масштаб суммы: все валюты хранятся в сотых долях,
// включая SATS (5000 minor units = 50 sats), как ожидают клиенты процессоров.
const MinorUnitScale = 100

var (
	hundred  = decimal.NewFromInt(100)
	scale    = decimal.NewFromInt(MinorUnitScale)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// ParseDiscountKind принимает и "percentage" из старых форм
func ParseDiscountKind(s string) (DiscountKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "":
		return DiscountFixed, true
	case "percent", "percentage":
		return DiscountPercent, true
	default:
		return "", false
	}
}

// ApplyDiscount вычитает процент или фиксированную сумму, не опускаясь ниже нуля.
// Неположительное значение скидки ничего не меняет.
func ApplyDiscount(base decimal.Decimal, kind DiscountKind, value decimal.Decimal) decimal.Decimal {
	if !value.IsPositive() {
		return clampZero(base)
	}

	var result decimal.Decimal
	switch kind {
	case DiscountPercent:
		result = base.Sub(base.Mul(value).Div(hundred))
	default:
		result = base.Sub(value)
	}
	return clampZero(result)
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ToMinorUnits округляет half-up до точности валюты (2 знака, SATS до целых)
// и переводит во внутренний масштаб. ok=false, если сумма не помещается в int64.
func ToMinorUnits(amount decimal.Decimal, currency models.Currency) (int64, bool) {
	minor := amount.Round(currency.Decimals()).Mul(scale).Round(0)
	if minor.Abs().GreaterThan(maxMinor) {
		return 0, false
	}
	return minor.IntPart(), true
}

// FromMinorUnits - обратный перевод в основные единицы
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(scale)
}

// FormatMinor печатает сумму в основных единицах с точностью валюты
func FormatMinor(minor int64, currency models.Currency) string {
	return FromMinorUnits(minor).StringFixed(currency.Decimals())
}

// ParseAmount разбирает пользовательский ввод; пустая строка или мусор дают ok=false
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
