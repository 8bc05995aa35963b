package domain

import "time"

// Transaction is a storefront top-up order as seen by the support bot.
// The storefront owns the table; the relay only reads it to answer
// "cek trx" status questions.
type Transaction struct {
	TrxID     string    `json:"trx_id"`
	Product   string    `json:"product"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}
