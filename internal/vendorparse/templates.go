package vendorparse

import (
	"fmt"
	"strings"

	"github.com/expenselens/receipt-engine/constants"
	"github.com/expenselens/receipt-engine/internal/vendor"
)

const promptHeader = `You are a receipt parsing expert. Extract structured data from the receipt text below.
Respond with ONLY a JSON object matching this shape:
{"vendor": string, "date": "YYYY-MM-DD", "total_amount": number, "subtotal": number, "tax": number, "currency": "USD", "line_items": [{"description": string, "quantity": number, "unit_price": number, "total_price": number, "sku": string}], "category": string, "confidence": number, "payment_method": string, "receipt_number": string}
Confidence is 0-100. Omit fields you cannot determine. Allowed categories: `

// vendorHints contribute vendor-specific parsing guidance to the prompt.
var vendorHints = map[vendor.Type]string{
	vendor.TypeWalmart: `This is a Walmart receipt.
- Item lines carry an uppercase name followed by a 9-13 digit UPC code.
- Trailing X, O, T or N after a price is a tax flag, not part of the amount.
- "N AT price FOR total" means ONE item with quantity N totaling "total"; the item name is on the line above.
- ST#, OP#, TE#, TC# lines are store metadata, not items.`,
	vendor.TypeCostco: `This is a Costco receipt.
- Item lines start with a 5-7 digit item number followed by the name and price.
- A trailing E marks tax-exempt, A or Y marks taxable.
- Negative amounts with a trailing dash are discounts; subtract them from the item above.
- Member number and warehouse lines are metadata, not items.`,
	vendor.TypeTarget: `This is a Target receipt.
- Item lines carry a 9 digit DPCI code.
- A trailing T or F after a price is a tax flag.
- RedCard savings lines are discounts, not items.`,
	vendor.TypeGrocery: `This is a grocery store receipt.
- Section headers like PRODUCE or DAIRY group items and are not items themselves.
- Weight-priced lines look like "1.52 lb @ 2.99/lb"; total is weight times unit price.
- Trailing B or F after a price marks food-stamp eligibility.`,
	vendor.TypePharmacy: `This is a pharmacy receipt.
- RX lines are prescriptions; keep the RX number as the SKU.
- Loyalty card savings lines are discounts, not items.`,
}

// BuildPrompt renders the extraction prompt for a detected vendor type.
func BuildPrompt(det vendor.Detection, rawText string) string {
	var sb strings.Builder
	sb.WriteString(promptHeader)
	sb.WriteString(strings.Join(constants.AsStringSlice(), ", "))
	sb.WriteString("\n\n")

	if hint, ok := vendorHints[det.Type]; ok {
		sb.WriteString(hint)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Receipt text:\n")
	sb.WriteString(rawText)
	return sb.String()
}

// BuildEnhancedGenericPrompt embeds the detection evidence and the error
// messages of earlier failed attempts so a generic model pass still benefits
// from what the pipeline already learned.
func BuildEnhancedGenericPrompt(det vendor.Detection, rawText string, priorErrors []string) string {
	var sb strings.Builder
	sb.WriteString(promptHeader)
	sb.WriteString(strings.Join(constants.AsStringSlice(), ", "))
	sb.WriteString("\n\nThe vendor could not be classified confidently.")
	if len(det.Evidence) > 0 {
		sb.WriteString(" Observed signals:\n")
		for _, ev := range det.Evidence {
			sb.WriteString(fmt.Sprintf("- %s\n", ev))
		}
	}
	if len(priorErrors) > 0 {
		sb.WriteString("\nEarlier extraction attempts failed with:\n")
		for _, e := range priorErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
	}
	sb.WriteString("\nBe conservative: prefer omitting a field over guessing.\n\nReceipt text:\n")
	sb.WriteString(rawText)
	return sb.String()
}
