package models

import "strings"

// Currency - закрытое перечисление валют формы
type Currency string

const (
	CurrencyEUR  Currency = "EUR"
	CurrencyUSD  Currency = "USD"
	CurrencySATS Currency = "SATS"
	CurrencyBTC  Currency = "BTC"
	CurrencyCAD  Currency = "CAD"
	CurrencyJPY  Currency = "JPY"
	CurrencyGBP  Currency = "GBP"
	CurrencyCHF  Currency = "CHF"
	CurrencyRUB  Currency = "RUB"
)

var AllCurrencies = []Currency{
	CurrencyEUR, CurrencyUSD, CurrencySATS, CurrencyBTC, CurrencyCAD,
	CurrencyJPY, CurrencyGBP, CurrencyCHF, CurrencyRUB,
}

// ParseCurrency нормализует регистр и проверяет вхождение в перечисление
func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}

func (c Currency) Valid() bool {
	for _, known := range AllCurrencies {
		if c == known {
			return true
		}
	}
	return false
}

// Decimals - сколько знаков после запятой округлять при переводе в minor units
func (c Currency) Decimals() int32 {
	if c == CurrencySATS {
		return 0
	}
	return 2
}

func (c Currency) String() string {
	return string(c)
}
