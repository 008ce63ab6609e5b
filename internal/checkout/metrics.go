package checkout

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"tienda/internal/domain"
)

type engineMetrics struct {
	ordersPlaced metric.Int64Counter
	orderTotal   metric.Float64Histogram
}

func newEngineMetrics() (*engineMetrics, error) {
	meter := otel.Meter("checkout")

	ordersPlaced, err := meter.Int64Counter("checkout.orders_placed",
		metric.WithDescription("Number of orders successfully placed"),
	)
	if err != nil {
		return nil, err
	}

	orderTotal, err := meter.Float64Histogram("checkout.order_total",
		metric.WithDescription("Grand total of placed orders"),
	)
	if err != nil {
		return nil, err
	}

	return &engineMetrics{
		ordersPlaced: ordersPlaced,
		orderTotal:   orderTotal,
	}, nil
}

func (m *engineMetrics) recordOrder(ctx context.Context, order *domain.Order) {
	m.ordersPlaced.Add(ctx, 1)
	m.orderTotal.Record(ctx, order.Total.InexactFloat64())
}
