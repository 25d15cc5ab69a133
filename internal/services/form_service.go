package services

import (
	"sort"

	"bif_backend/internal/config"
	"bif_backend/internal/models"
	"bif_backend/internal/providers"
	"bif_backend/internal/services/dto"
	"bif_backend/internal/services/pricing"
	"bif_backend/pkg/apperrors"

	"github.com/shopspring/decimal"
)

// FormService - каталог форм из конфигурации
type FormService interface {
	GetForm(formID uint64) (*config.FormConfig, error)
	ListForms() []config.FormConfig
	GetPublicForm(formID uint64) (*dto.FormResponse, error)
}

type formService struct {
	forms    map[uint64]config.FormConfig
	registry *providers.Registry
	global   *config.Config
}

func NewFormService(cfg *config.Config, registry *providers.Registry) FormService {
	forms := make(map[uint64]config.FormConfig, len(cfg.Forms))
	for _, f := range cfg.Forms {
		forms[f.ID] = f
	}
	return &formService{forms: forms, registry: registry, global: cfg}
}

// GetForm возвращает только формы допустимого типа, иначе InvalidForm
func (s *formService) GetForm(formID uint64) (*config.FormConfig, error) {
	form, ok := s.forms[formID]
	if !ok {
		return nil, apperrors.ErrInvalidForm
	}
	if form.Type != config.FormTypeInvoice && form.Type != config.FormTypeLegacyInvoice {
		return nil, apperrors.ErrInvalidForm
	}
	return &form, nil
}

func (s *formService) ListForms() []config.FormConfig {
	out := make([]config.FormConfig, 0, len(s.forms))
	for _, f := range s.forms {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *formService) GetPublicForm(formID uint64) (*dto.FormResponse, error) {
	form, err := s.GetForm(formID)
	if err != nil {
		return nil, err
	}

	currency, ok := models.ParseCurrency(firstNonEmpty(form.Currency, s.global.Payment.DefaultCurrency, string(models.CurrencyUSD)))
	if !ok {
		currency = models.CurrencyUSD
	}

	base := firstPositiveAmount(form.Amount, s.global.Payment.DefaultAmount)
	preview := applyFormDiscount(base, form)
	previewAmount := preview.StringFixed(currency.Decimals())
	if minor, ok := pricing.ToMinorUnits(preview, currency); ok {
		previewAmount = pricing.FormatMinor(minor, currency)
	}

	resp := &dto.FormResponse{
		ID:          form.ID,
		Title:       form.Title,
		Amount:      base.StringFixed(currency.Decimals()),
		Currency:    currency.String(),
		Description: form.Description,
		Discount: dto.FormDiscount{
			Enabled: form.Discount.Enabled,
			Type:    form.Discount.Type,
			Value:   form.Discount.Value,
			Notice:  form.Discount.Notice,
		},
		PreviewAmount:   previewAmount,
		SuccessPage:     form.Redirect.SuccessPage,
		ThankYouMessage: form.Redirect.ThankYouMessage,
	}
	if client := s.registry.Resolve(form.ProviderOverride); client != nil {
		resp.Provider = string(client.Name())
	}
	return resp, nil
}

// applyFormDiscount берет скидку только из конфигурации формы
func applyFormDiscount(base decimal.Decimal, form *config.FormConfig) decimal.Decimal {
	if !form.Discount.Enabled {
		return base
	}
	kind, ok := pricing.ParseDiscountKind(form.Discount.Type)
	if !ok {
		return base
	}
	value, ok := pricing.ParseAmount(form.Discount.Value)
	if !ok {
		return base
	}
	return pricing.ApplyDiscount(base, kind, value)
}

// firstPositiveAmount - первая разобранная положительная сумма, иначе ноль
func firstPositiveAmount(candidates ...string) decimal.Decimal {
	for _, c := range candidates {
		if amount, ok := pricing.ParseAmount(c); ok && amount.IsPositive() {
			return amount
		}
	}
	return decimal.Zero
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
