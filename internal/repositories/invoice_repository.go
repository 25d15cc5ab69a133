package repositories

import (
	"errors"
	"strings"
	"time"

	"bif_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrDuplicateInvoice = errors.New("invoice with this transaction or payment id already exists")
)

type InvoiceRepository interface {
	Create(db *gorm.DB, invoice *models.Invoice) error
	FindByID(db *gorm.DB, id string) (*models.Invoice, error)
	FindByPaymentInvoiceID(db *gorm.DB, paymentInvoiceID string) (*models.Invoice, error)
	FindByTransactionID(db *gorm.DB, transactionID string) (*models.Invoice, error)
	// FindByReference ищет по id процессора, затем по transaction_id
	FindByReference(db *gorm.DB, ref string) (*models.Invoice, error)

	// Атомарные переходы статуса; возвращают число затронутых строк (0 или 1)
	MarkPaid(db *gorm.DB, paymentInvoiceID string, paidAt time.Time) (int64, error)
	MarkFailed(db *gorm.DB, paymentInvoiceID string) (int64, error)

	List(db *gorm.DB, criteria InvoiceCriteria) ([]models.Invoice, int64, error)
	FindUnpaidSince(db *gorm.DB, since time.Time, limit int) ([]models.Invoice, error)
	CountByStatus(db *gorm.DB) (map[models.PaymentStatus]int64, error)
}

type InvoiceRepositoryImpl struct{}

// InvoiceCriteria - фильтры админского списка транзакций
type InvoiceCriteria struct {
	Status   models.PaymentStatus `form:"payment_status" validate:"omitempty,is-payment-status"`
	FormID   uint64               `form:"form_id"`
	Provider models.ProviderName  `form:"provider" validate:"omitempty,is-provider"`
	Email    string               `form:"email"`
	DateFrom *time.Time           `form:"date_from" time_format:"2006-01-02"`
	DateTo   *time.Time           `form:"date_to" time_format:"2006-01-02"`
	Page     int                  `form:"page" validate:"omitempty,min=1"`
	PageSize int                  `form:"page_size" validate:"omitempty,min=1,max=500"`
}

func (c *InvoiceCriteria) normalize() {
	if c.Page < 1 {
		c.Page = 1
	}
	if c.PageSize < 1 {
		c.PageSize = 20
	}
}

func NewInvoiceRepository() InvoiceRepository {
	return &InvoiceRepositoryImpl{}
}

func (r *InvoiceRepositoryImpl) Create(db *gorm.DB, invoice *models.Invoice) error {
	if invoice.PaymentStatus == "" {
		invoice.PaymentStatus = models.PaymentStatusUnpaid
	}
	if err := db.Create(invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return ErrDuplicateInvoice
		}
		return err
	}
	return nil
}

func (r *InvoiceRepositoryImpl) findOne(db *gorm.DB, query string, arg any) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := db.Where(query, arg).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Invoice, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *InvoiceRepositoryImpl) FindByPaymentInvoiceID(db *gorm.DB, paymentInvoiceID string) (*models.Invoice, error) {
	return r.findOne(db, "payment_invoice_id = ?", paymentInvoiceID)
}

func (r *InvoiceRepositoryImpl) FindByTransactionID(db *gorm.DB, transactionID string) (*models.Invoice, error) {
	return r.findOne(db, "transaction_id = ?", transactionID)
}

func (r *InvoiceRepositoryImpl) FindByReference(db *gorm.DB, ref string) (*models.Invoice, error) {
	invoice, err := r.FindByPaymentInvoiceID(db, ref)
	if errors.Is(err, ErrInvoiceNotFound) {
		return r.FindByTransactionID(db, ref)
	}
	return invoice, err
}

// MarkPaid - compare-and-set: строка, уже бывшая paid, не трогается
func (r *InvoiceRepositoryImpl) MarkPaid(db *gorm.DB, paymentInvoiceID string, paidAt time.Time) (int64, error) {
	result := db.Model(&models.Invoice{}).
		Where("payment_invoice_id = ? AND payment_status <> ?", paymentInvoiceID, models.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"paid_at":        paidAt,
			"updated_at":     time.Now(),
		})
	return result.RowsAffected, result.Error
}

// MarkFailed переводит в failed только из unpaid
func (r *InvoiceRepositoryImpl) MarkFailed(db *gorm.DB, paymentInvoiceID string) (int64, error) {
	result := db.Model(&models.Invoice{}).
		Where("payment_invoice_id = ? AND payment_status = ?", paymentInvoiceID, models.PaymentStatusUnpaid).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusFailed,
			"updated_at":     time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *InvoiceRepositoryImpl) List(db *gorm.DB, criteria InvoiceCriteria) ([]models.Invoice, int64, error) {
	criteria.normalize()

	query := db.Model(&models.Invoice{})
	if criteria.Status != "" {
		query = query.Where("payment_status = ?", criteria.Status)
	}
	if criteria.FormID != 0 {
		query = query.Where("form_id = ?", criteria.FormID)
	}
	if criteria.Provider != "" {
		query = query.Where("payment_provider = ?", criteria.Provider)
	}
	if criteria.Email != "" {
		query = query.Where("LOWER(customer_email) = ?", strings.ToLower(strings.TrimSpace(criteria.Email)))
	}
	if criteria.DateFrom != nil {
		query = query.Where("created_at >= ?", *criteria.DateFrom)
	}
	if criteria.DateTo != nil {
		query = query.Where("created_at < ?", criteria.DateTo.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []models.Invoice
	offset := (criteria.Page - 1) * criteria.PageSize
	err := query.Order("created_at DESC").Order("id DESC").
		Limit(criteria.PageSize).Offset(offset).
		Find(&invoices).Error
	return invoices, total, err
}

// FindUnpaidSince - кандидаты для фоновой сверки, самые старые первыми
func (r *InvoiceRepositoryImpl) FindUnpaidSince(db *gorm.DB, since time.Time, limit int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	query := db.Where("payment_status = ? AND created_at >= ?", models.PaymentStatusUnpaid, since).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&invoices).Error
	return invoices, err
}

func (r *InvoiceRepositoryImpl) CountByStatus(db *gorm.DB) (map[models.PaymentStatus]int64, error) {
	var rows []struct {
		PaymentStatus models.PaymentStatus
		Count         int64
	}
	err := db.Model(&models.Invoice{}).
		Select("payment_status, COUNT(*) as count").
		Group("payment_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.PaymentStatus]int64, len(models.AllPaymentStatuses))
	for _, s := range models.AllPaymentStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.PaymentStatus] = row.Count
	}
	return counts, nil
}

// isUniqueViolation - драйверы без TranslateError возвращают текст ошибки СУБД
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
