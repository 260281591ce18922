package entities

import "time"

// Product is an insurable category with its own fund pool. Price is the cost
// of one coverage period in native value units; PeriodLength is the duration
// one paid period covers.
type Product struct {
	Alias        string
	Price        int64
	PeriodLength time.Duration

	// Pooled is available to reserve against new claims; Reserved is
	// earmarked for open or approved-but-unpaid claims. Both stay >= 0.
	Pooled   int64
	Reserved int64

	// Running audit counters. pooled + reserved + paid_out == credited holds
	// across every transition.
	Credited int64
	PaidOut  int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
