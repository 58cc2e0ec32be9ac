package domain

// StoreStats are persisted counters reported by the repositories.
type StoreStats struct {
	TotalCustomers int64
	TotalMessages  int64
	MessagesToday  int64
	ActiveToday    int64
}
