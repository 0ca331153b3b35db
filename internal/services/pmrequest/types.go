package pmrequest

import (
	"crewpay/internal/models"
	"crewpay/internal/services/release"
)

type LineItemInput struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type CreateInput struct {
	JobID     uint            `json:"job_id"`
	Currency  string          `json:"currency"`
	TaxCents  int64           `json:"tax_cents"`
	LineItems []LineItemInput `json:"line_items"`
}

type ReceiptInput struct {
	FileURL             string `json:"file_url"`
	Vendor              string `json:"vendor"`
	ExtractedTotalCents int64  `json:"extracted_total_cents"`
}

// Result is returned by every transition. Idempotent is set when the
// request had already reached the target state and nothing was written.
type Result struct {
	Request    *models.PMRequest `json:"request"`
	Idempotent bool              `json:"idempotent"`
}

type ReleaseResult struct {
	Request    *models.PMRequest      `json:"request"`
	Amounts    release.Amounts        `json:"amounts"`
	Transfer   *models.TransferRecord `json:"transfer,omitempty"`
	Idempotent bool                   `json:"idempotent"`
}
