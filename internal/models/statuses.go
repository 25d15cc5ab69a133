package models

// PaymentStatus - статус оплаты инвойса; единственное изменяемое поле записи
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// AllPaymentStatuses - в порядке фильтра в админке
var AllPaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// IsTerminal: только paid окончательный, failed/refunded еще могут стать paid
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid
}

// CanTransitionTo описывает допустимые переходы:
// paid никогда не понижается, failed ставится только поверх unpaid,
// в paid можно перейти из любого не-paid состояния (процессор главнее).
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == PaymentStatusPaid {
		return false
	}
	switch next {
	case PaymentStatusPaid:
		return true
	case PaymentStatusFailed:
		return s == PaymentStatusUnpaid
	default:
		return false
	}
}

// ProviderName - ключ процессора в настройках и в колонке payment_provider
type ProviderName string

const (
	ProviderCoinsnap ProviderName = "coinsnap"
	ProviderBTCPay   ProviderName = "btcpay"
)

func (p ProviderName) Valid() bool {
	return p == ProviderCoinsnap || p == ProviderBTCPay
}

// PaymentSource - канал, через который пришел результат оплаты
type PaymentSource string

const (
	SourceWebhook      PaymentSource = "webhook"
	SourcePoll         PaymentSource = "poll"
	SourceManualVerify PaymentSource = "manual-verify"
	SourceWorker       PaymentSource = "worker"
)
