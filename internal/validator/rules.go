package validator

import (
	"log"
	"strings"

	"bif_backend/internal/models"
	"bif_backend/internal/services/pricing"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует все кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-currency", validateCurrency)
	mustRegister("is-payment-status", validatePaymentStatus)
	mustRegister("is-provider", validateProvider)
	mustRegister("is-discount-type", validateDiscountType)

	// 'is-amount': строка суммы из формы, допускается запятая как разделитель
	mustRegister("is-amount", validateAmount)
}

// --- Функции валидации ---
// Пустые значения не проверяются, для этого есть 'required'

func validateCurrency(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := models.ParseCurrency(value)
	return ok
}

func validatePaymentStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.PaymentStatus(value).Valid()
}

func validateProvider(fl validator.FieldLevel) bool {
	value := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	if value == "" {
		return true
	}
	return models.ProviderName(value).Valid()
}

func validateDiscountType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := pricing.ParseDiscountKind(value)
	return ok
}

func validateAmount(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return true
	}
	amount, ok := pricing.ParseAmount(value)
	if !ok || amount.IsNegative() {
		return false
	}
	// масштаб minor units одинаков для всех валют
	_, fits := pricing.ToMinorUnits(amount, models.CurrencyUSD)
	return fits
}
