package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/docufield/receipt-lens/internal/common"
	"github.com/docufield/receipt-lens/internal/entity"
)

type ReceiptRepository interface {
	Save(ctx context.Context, record *entity.ReceiptRecord) (*entity.StoredReceipt, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.StoredReceipt, error)
	ListReceipts(ctx context.Context, fromDate, toDate *time.Time) ([]*entity.StoredReceipt, error)
}

type receiptRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewReceiptRepository(pool *pgxpool.Pool, logger *slog.Logger) ReceiptRepository {
	return &receiptRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *receiptRepository) Save(ctx context.Context, record *entity.ReceiptRecord) (*entity.StoredReceipt, error) {
	id := uuid.New()
	now := time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("failed to begin transaction", "error", err)
		return nil, common.WrapError(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s := record.Summary
	subtotal, subtotalCur := amountCols(s.Subtotal)
	tax, taxCur := amountCols(s.Tax)
	total, totalCur := amountCols(s.Total)

	_, err = tx.Exec(ctx, `
		INSERT INTO receipts (
			id, classification, merchant_name, merchant_address, merchant_phone,
			tx_date, tx_time, subtotal, subtotal_currency, tax, tax_currency,
			total, total_currency, raw_content, content_confidence,
			provider, model_id, model_version, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		id, string(s.Classification), s.MerchantName, s.MerchantAddress, s.MerchantPhone,
		s.TransactionDate, s.TransactionTime, subtotal, subtotalCur, tax, taxCur,
		total, totalCur, record.RawContent, record.ContentConfidence,
		record.Model.Provider, record.Model.ModelID, record.Model.ModelVersion, now,
	)
	if err != nil {
		r.logger.Error("failed to insert receipt", "receipt_id", id, "error", err)
		return nil, common.WrapError(err, "insert receipt")
	}

	for i, item := range record.Items {
		unitPrice, unitPriceCur := amountCols(item.UnitPrice)
		totalPrice, totalPriceCur := amountCols(item.TotalPrice)
		_, err = tx.Exec(ctx, `
			INSERT INTO receipt_items (
				receipt_id, position, description, quantity,
				unit_price, unit_price_currency, total_price, total_price_currency, confidence
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			id, i, item.Description, decimalCol(item.Quantity),
			unitPrice, unitPriceCur, totalPrice, totalPriceCur, item.Confidence,
		)
		if err != nil {
			r.logger.Error("failed to insert receipt item", "receipt_id", id, "position", i, "error", err)
			return nil, common.WrapError(err, "insert receipt item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("failed to commit receipt", "receipt_id", id, "error", err)
		return nil, common.WrapError(err, "commit receipt")
	}

	r.logger.Info("receipt saved", "receipt_id", id, "items", len(record.Items))
	return &entity.StoredReceipt{ID: id, Record: *record, CreatedAt: now}, nil
}

const receiptColumns = `
	id, classification, merchant_name, merchant_address, merchant_phone,
	tx_date, tx_time, subtotal::text, subtotal_currency, tax::text, tax_currency,
	total::text, total_currency, raw_content, content_confidence,
	provider, model_id, model_version, created_at`

func (r *receiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.StoredReceipt, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id)
	rec, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("failed to get receipt", "receipt_id", id, "error", err)
		return nil, common.WrapError(err, "get receipt")
	}

	items, err := r.loadItems(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Record.Items = items
	return rec, nil
}

func (r *receiptRepository) ListReceipts(ctx context.Context, fromDate, toDate *time.Time) ([]*entity.StoredReceipt, error) {
	q := `SELECT ` + receiptColumns + ` FROM receipts WHERE 1=1`
	args := []any{}
	if fromDate != nil {
		args = append(args, *fromDate)
		q += ` AND tx_date >= $1`
	}
	if toDate != nil {
		args = append(args, *toDate)
		if len(args) == 1 {
			q += ` AND tx_date <= $1`
		} else {
			q += ` AND tx_date <= $2`
		}
	}
	q += ` ORDER BY tx_date NULLS LAST, created_at`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list receipts", "error", err)
		return nil, common.WrapError(err, "list receipts")
	}
	defer rows.Close()

	var out []*entity.StoredReceipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan receipt")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "list receipts")
	}

	for _, rec := range out {
		items, err := r.loadItems(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Record.Items = items
	}
	return out, nil
}

func (r *receiptRepository) loadItems(ctx context.Context, id uuid.UUID) ([]entity.LineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT description, quantity::text, unit_price::text, unit_price_currency,
			total_price::text, total_price_currency, confidence
		FROM receipt_items WHERE receipt_id = $1 ORDER BY position`, id)
	if err != nil {
		r.logger.Error("failed to load receipt items", "receipt_id", id, "error", err)
		return nil, common.WrapError(err, "load receipt items")
	}
	defer rows.Close()

	items := []entity.LineItem{}
	for rows.Next() {
		var item entity.LineItem
		var quantity, unitPrice, unitCur, totalPrice, tCur *string
		if err := rows.Scan(&item.Description, &quantity, &unitPrice, &unitCur, &totalPrice, &tCur, &item.Confidence); err != nil {
			return nil, common.WrapError(err, "scan receipt item")
		}
		if quantity != nil {
			if d, err := decimal.NewFromString(*quantity); err == nil {
				item.Quantity = &d
			}
		}
		item.UnitPrice = amountFromCols(unitPrice, unitCur)
		item.TotalPrice = amountFromCols(totalPrice, tCur)
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanReceipt(row pgx.Row) (*entity.StoredReceipt, error) {
	var (
		rec            entity.StoredReceipt
		classification string

		subtotal, subtotalCur, tax, taxCur, total, totalCur *string
	)
	s := &rec.Record.Summary
	err := row.Scan(
		&rec.ID, &classification, &s.MerchantName, &s.MerchantAddress, &s.MerchantPhone,
		&s.TransactionDate, &s.TransactionTime, &subtotal, &subtotalCur, &tax, &taxCur,
		&total, &totalCur, &rec.Record.RawContent, &rec.Record.ContentConfidence,
		&rec.Record.Model.Provider, &rec.Record.Model.ModelID, &rec.Record.Model.ModelVersion, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Classification = entity.Classification(classification)
	s.Subtotal = amountFromCols(subtotal, subtotalCur)
	s.Tax = amountFromCols(tax, taxCur)
	s.Total = amountFromCols(total, totalCur)
	rec.Record.Items = []entity.LineItem{}
	return &rec, nil
}

func amountCols(a *entity.Amount) (*string, *string) {
	if a == nil {
		return nil, nil
	}
	v := a.Value.StringFixed(2)
	return &v, a.CurrencyCode
}

func decimalCol(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	v := d.StringFixed(2)
	return &v
}

func amountFromCols(value, currency *string) *entity.Amount {
	if value == nil {
		return nil
	}
	d, err := decimal.NewFromString(*value)
	if err != nil {
		return nil
	}
	return &entity.Amount{Value: d, CurrencyCode: currency}
}
