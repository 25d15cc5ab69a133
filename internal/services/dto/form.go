package dto

// FormDiscount - публичная часть настроек скидки
type FormDiscount struct {
	Enabled bool   `json:"enabled"`
	Type    string `json:"type"`
	Value   string `json:"value"`
	Notice  string `json:"notice,omitempty"`
}

// FormResponse - публичная конфигурация формы и предпросмотр итоговой суммы.
// Предпросмотр косметический, сумму к оплате всегда считает сервер.
type FormResponse struct {
	ID              uint64       `json:"id"`
	Title           string       `json:"title"`
	Amount          string       `json:"amount"`
	Currency        string       `json:"currency"`
	Description     string       `json:"description"`
	Provider        string       `json:"provider"`
	Discount        FormDiscount `json:"discount"`
	PreviewAmount   string       `json:"preview_amount"`
	SuccessPage     string       `json:"success_page,omitempty"`
	ThankYouMessage string       `json:"thank_you_message"`
}

type FormTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}
