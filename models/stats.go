package models

// UserStats are the per-user counters kept in the aggregate store
type UserStats struct {
	UserID     string  `json:"user_id"`
	OrderCount int64   `json:"order_count"`
	TotalSpend float64 `json:"total_spend"`
}

// GlobalStats are the store-wide counters
type GlobalStats struct {
	TotalOrders  int64   `json:"total_orders"`
	TotalRevenue float64 `json:"total_revenue"`
}

// Spender is one leaderboard entry, ordered by cumulative spend
type Spender struct {
	UserID     string  `json:"user_id"`
	TotalSpend float64 `json:"total_spend"`
}

// MonthStats is one "YYYY-MM" bucket
type MonthStats struct {
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}
