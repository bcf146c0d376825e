package entity

import (
	"time"
)

// ExtractedReceiptData is the canonical structured record produced by every
// extraction path (heuristic, vendor-specific, fallback).
type ExtractedReceiptData struct {
	Vendor        string     `json:"vendor"`
	Date          time.Time  `json:"date"`
	TotalAmount   float64    `json:"total_amount"`
	Subtotal      float64    `json:"subtotal"`
	Tax           float64    `json:"tax"`
	Currency      string     `json:"currency"`
	LineItems     []LineItem `json:"line_items"`
	Category      string     `json:"category"`
	Confidence    float64    `json:"confidence"` // 0..100
	Notes         string     `json:"notes,omitempty"`
	ReceiptNumber string     `json:"receipt_number,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
}

// LineItem is one purchased product/service entry.
// Invariant: |Quantity*UnitPrice - TotalPrice| < 0.05.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
	Category    string  `json:"category"`
	SKU         string  `json:"sku,omitempty"`
}

// HasVendor reports whether a real vendor name was extracted.
func (d *ExtractedReceiptData) HasVendor() bool {
	return d.Vendor != "" && d.Vendor != "Unknown"
}

// MathError is the absolute difference between total and subtotal+tax.
func (d *ExtractedReceiptData) MathError() float64 {
	diff := d.Subtotal + d.Tax - d.TotalAmount
	if diff < 0 {
		diff = -diff
	}
	return diff
}
