package vendorparse

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/expenselens/receipt-engine/constants"
	"github.com/expenselens/receipt-engine/internal/entity"
)

// looseReceipt mirrors the model's JSON shape with everything optional.
type looseReceipt struct {
	Vendor        string      `json:"vendor"`
	Date          string      `json:"date"`
	TotalAmount   float64     `json:"total_amount"`
	Subtotal      float64     `json:"subtotal"`
	Tax           float64     `json:"tax"`
	Currency      string      `json:"currency"`
	LineItems     []looseItem `json:"line_items"`
	Category      string      `json:"category"`
	Confidence    float64     `json:"confidence"`
	Notes         string      `json:"notes"`
	ReceiptNumber string      `json:"receipt_number"`
	PaymentMethod string      `json:"payment_method"`
}

type looseItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
	Category    string  `json:"category"`
	SKU         string  `json:"sku"`
}

// CoerceReceipt decodes sanitized model JSON into the canonical record,
// filling defaults for anything absent. Confidence is clamped to [0,100].
func CoerceReceipt(raw []byte) (entity.ExtractedReceiptData, error) {
	var lr looseReceipt
	if err := json.Unmarshal(raw, &lr); err != nil {
		return entity.ExtractedReceiptData{}, fmt.Errorf("coerce receipt: %w", err)
	}

	data := entity.ExtractedReceiptData{
		Vendor:        lr.Vendor,
		TotalAmount:   lr.TotalAmount,
		Subtotal:      lr.Subtotal,
		Tax:           lr.Tax,
		Currency:      lr.Currency,
		Category:      lr.Category,
		Confidence:    lr.Confidence,
		Notes:         lr.Notes,
		ReceiptNumber: lr.ReceiptNumber,
		PaymentMethod: lr.PaymentMethod,
	}

	if data.Vendor == "" {
		data.Vendor = "Unknown"
	}
	if data.Currency == "" {
		data.Currency = "USD"
	}
	if cat, ok := constants.Canonicalize(lr.Category); ok {
		data.Category = string(cat)
	} else if data.Category == "" {
		data.Category = string(constants.Other)
	}

	if t, err := time.Parse("2006-01-02", lr.Date); err == nil {
		data.Date = t
	} else {
		now := time.Now().UTC()
		data.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	if data.Confidence < 0 {
		data.Confidence = 0
	}
	if data.Confidence > 100 {
		data.Confidence = 100
	}

	for _, li := range lr.LineItems {
		if li.Description == "" {
			continue
		}
		item := entity.LineItem{
			ID:          uuid.New().String(),
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			TotalPrice:  li.TotalPrice,
			Category:    li.Category,
			SKU:         li.SKU,
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		if item.UnitPrice == 0 && item.Quantity > 0 {
			item.UnitPrice = item.TotalPrice / item.Quantity
		}
		if item.TotalPrice == 0 {
			item.TotalPrice = item.Quantity * item.UnitPrice
		}
		data.LineItems = append(data.LineItems, item)
	}

	return data, nil
}
