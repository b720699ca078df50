package model

// OrderRecord is an immutable snapshot of one order row. It is never cached
// across requests.
type OrderRecord struct {
	OrderID   string   `json:"order_id"`
	Status    string   `json:"status"`
	Amount    *float64 `json:"amount"`
	UpdatedAt string   `json:"updated_at"`
	StartTime string   `json:"start_time,omitempty"`
}
