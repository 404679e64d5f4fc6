package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/pkg/zerror"
)

type stockOperation string

const (
	stockOperationPurchase stockOperation = "purchase"
	stockOperationRestock  stockOperation = "restock"
)

var stockAdjustmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "sweetshop",
		Name:      "stock_adjustments_total",
		Help:      "Number of stock adjustments by operation and result.",
	},
	[]string{"operation", "result"},
)

func recordStockAdjustment(op stockOperation, err error) {
	stockAdjustmentsTotal.WithLabelValues(string(op), adjustmentResult(err)).Inc()
}

func adjustmentResult(err error) string {
	if err == nil {
		return "ok"
	}

	var zErr zerror.ZError
	if !errors.As(err, &zErr) {
		return "error"
	}

	switch zErr.Code() {
	case apperr.InsufficientStockCode:
		return "insufficient_stock"
	case apperr.NotFoundCode:
		return "not_found"
	case apperr.ValidationErrorCode:
		return "invalid"
	case apperr.TransientCode:
		return "transient"
	default:
		return "error"
	}
}
