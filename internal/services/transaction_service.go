package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bif_backend/internal/logger"
	"bif_backend/internal/models"
	"bif_backend/internal/repositories"
	"bif_backend/internal/services/dto"
	"bif_backend/internal/services/pricing"
	"bif_backend/internal/storage"
	"bif_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// exportPageSize - сколько строк выгрузка читает за один запрос к БД
const exportPageSize = 500

const defaultWebhookEventLimit = 50

var csvHeader = []string{
	"id", "transaction_id", "form_id", "invoice_number", "customer_name", "customer_email",
	"customer_company", "amount", "currency", "payment_provider", "payment_invoice_id",
	"payment_status", "created_at", "paid_at",
}

// TransactionService - админский просмотр инвойсов
type TransactionService interface {
	List(db *gorm.DB, criteria repositories.InvoiceCriteria) (*dto.TransactionListResponse, error)
	Get(db *gorm.DB, ref string) (*dto.TransactionResponse, error)
	Stats(db *gorm.DB) (*dto.TransactionStatsResponse, error)
	ExportCSV(ctx context.Context, db *gorm.DB, criteria repositories.InvoiceCriteria) (*dto.ExportResponse, error)
	// WebhookEvents - последние доставки вебхуков, новые первыми
	WebhookEvents(db *gorm.DB, criteria dto.WebhookEventCriteria) ([]dto.WebhookEventResponse, error)
}

type transactionService struct {
	invoiceRepo repositories.InvoiceRepository
	eventRepo   repositories.WebhookEventRepository
	storage     storage.Storage
}

func NewTransactionService(invoiceRepo repositories.InvoiceRepository, eventRepo repositories.WebhookEventRepository, storage storage.Storage) TransactionService {
	return &transactionService{invoiceRepo: invoiceRepo, eventRepo: eventRepo, storage: storage}
}

func (s *transactionService) List(db *gorm.DB, criteria repositories.InvoiceCriteria) (*dto.TransactionListResponse, error) {
	invoices, total, err := s.invoiceRepo.List(db, criteria)
	if err != nil {
		return nil, apperrors.ErrDatabase(err)
	}

	page, pageSize := criteria.Page, criteria.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	items := make([]dto.TransactionResponse, 0, len(invoices))
	for i := range invoices {
		items = append(items, buildTransactionResponse(&invoices[i]))
	}

	return &dto.TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

// Get принимает внутренний id, id процессора или transaction_id
func (s *transactionService) Get(db *gorm.DB, ref string) (*dto.TransactionResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(db, ref)
	if errors.Is(err, repositories.ErrInvoiceNotFound) {
		invoice, err = s.invoiceRepo.FindByReference(db, ref)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrInvoiceNotFound) {
			return nil, apperrors.ErrInvoiceNotFound(ref)
		}
		return nil, apperrors.ErrDatabase(err)
	}

	resp := buildTransactionResponse(invoice)
	return &resp, nil
}

func (s *transactionService) Stats(db *gorm.DB) (*dto.TransactionStatsResponse, error) {
	counts, err := s.invoiceRepo.CountByStatus(db)
	if err != nil {
		return nil, apperrors.ErrDatabase(err)
	}

	resp := &dto.TransactionStatsResponse{ByStatus: make(map[string]int64, len(counts))}
	for status, count := range counts {
		resp.ByStatus[string(status)] = count
		resp.Total += count
	}
	return resp, nil
}

// ExportCSV выгружает все строки под фильтром (без пагинации) в хранилище
func (s *transactionService) ExportCSV(ctx context.Context, db *gorm.DB, criteria repositories.InvoiceCriteria) (*dto.ExportResponse, error) {
	if s.storage == nil {
		return nil, apperrors.InternalError(errors.New("storage is not configured"))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, apperrors.InternalError(err)
	}

	criteria.PageSize = exportPageSize
	rows := 0
	for page := 1; ; page++ {
		criteria.Page = page
		invoices, total, err := s.invoiceRepo.List(db, criteria)
		if err != nil {
			return nil, apperrors.ErrDatabase(err)
		}
		for i := range invoices {
			if err := w.Write(csvRecord(&invoices[i])); err != nil {
				return nil, apperrors.InternalError(err)
			}
		}
		rows += len(invoices)
		if len(invoices) < exportPageSize || int64(rows) >= total {
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.InternalError(err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("transactions/%s/transactions-%s.csv", now.Format("2006-01-02"), now.Format("150405.000000000"))
	if err := s.storage.Save(ctx, key, &buf, "text/csv"); err != nil {
		logger.CtxWithError(ctx, "Failed to store transaction export", err, "key", key)
		return nil, apperrors.InternalError(err)
	}

	url, err := s.storage.GetURL(ctx, key)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Transactions exported", "key", key, "rows", rows)
	return &dto.ExportResponse{Key: key, URL: url, Rows: rows, CreatedAt: now}, nil
}

func (s *transactionService) WebhookEvents(db *gorm.DB, criteria dto.WebhookEventCriteria) ([]dto.WebhookEventResponse, error) {
	limit := criteria.Limit
	if limit < 1 {
		limit = defaultWebhookEventLimit
	}

	provider := models.ProviderName(strings.ToLower(strings.TrimSpace(criteria.Provider)))
	events, err := s.eventRepo.FindRecent(db, provider, limit)
	if err != nil {
		return nil, apperrors.ErrDatabase(err)
	}

	out := make([]dto.WebhookEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, dto.WebhookEventResponse{
			ID:               e.ID,
			Provider:         string(e.Provider),
			EventType:        e.EventType,
			PaymentInvoiceID: e.PaymentInvoiceID,
			SignatureValid:   e.SignatureValid,
			Outcome:          string(e.Outcome),
			ProcessingError:  e.ProcessingError,
			ReceivedAt:       e.ReceivedAt,
		})
	}
	return out, nil
}

func csvRecord(inv *models.Invoice) []string {
	paidAt := ""
	if inv.PaidAt != nil {
		paidAt = inv.PaidAt.UTC().Format(time.RFC3339)
	}
	return []string{
		inv.ID,
		inv.TransactionID,
		strconv.FormatUint(inv.FormID, 10),
		inv.InvoiceNumber,
		inv.CustomerName,
		inv.CustomerEmail,
		inv.CustomerCompany,
		pricing.FormatMinor(inv.Amount, inv.Currency),
		inv.Currency.String(),
		string(inv.PaymentProvider),
		inv.PaymentInvoiceID,
		string(inv.PaymentStatus),
		inv.CreatedAt.UTC().Format(time.RFC3339),
		paidAt,
	}
}

func buildTransactionResponse(inv *models.Invoice) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:               inv.ID,
		FormID:           inv.FormID,
		TransactionID:    inv.TransactionID,
		InvoiceNumber:    inv.InvoiceNumber,
		CustomerName:     inv.CustomerName,
		CustomerEmail:    inv.CustomerEmail,
		CustomerCompany:  inv.CustomerCompany,
		Amount:           pricing.FormatMinor(inv.Amount, inv.Currency),
		AmountMinor:      inv.Amount,
		Currency:         inv.Currency.String(),
		Description:      inv.Description,
		PaymentProvider:  string(inv.PaymentProvider),
		PaymentInvoiceID: inv.PaymentInvoiceID,
		PaymentStatus:    string(inv.PaymentStatus),
		PaymentURL:       inv.PaymentURL,
		IP:               inv.IP,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
		PaidAt:           inv.PaidAt,
	}
}
