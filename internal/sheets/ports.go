package sheets

import (
	"context"

	"dineadmin/internal/core"
	"dineadmin/internal/report"
)

// Ports for outbound adapters.
type (
	// SalesWriter appends one settled order to the sales sheet.
	SalesWriter interface {
		AppendSale(ctx context.Context, o core.Order) (rowRef string, err error)
	}

	// SummaryWriter appends the day close summary.
	SummaryWriter interface {
		AppendDailySummary(ctx context.Context, r report.DailyReport) (rowRef string, err error)
	}

	Writer interface {
		SalesWriter
		SummaryWriter
	}
)
