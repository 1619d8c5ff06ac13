package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vasiliy-maslov/storefront-admin/internal/inventory"
)

const namespace = "storefront"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// Middleware records every request under its chi route pattern so that
// path parameters do not explode label cardinality.
func (m *ServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		handler := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				handler = r.Method + " " + pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	})
}

// InventoryGauges exports the dashboard figures. It satisfies
// inventory.Recorder.
type InventoryGauges struct {
	TotalSales          prometheus.Gauge
	TotalVialsSold      prometheus.Gauge
	TotalInventoryValue prometheus.Gauge
	LowStockCount       prometheus.Gauge
	TotalItems          prometheus.Gauge
}

func NewInventoryGauges(reg prometheus.Registerer) *InventoryGauges {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      name,
			Help:      help,
		})
	}

	g := &InventoryGauges{
		TotalSales:          gauge("total_sales", "Recognized revenue including shipping."),
		TotalVialsSold:      gauge("total_vials_sold", "Units sold across recognized-revenue orders."),
		TotalInventoryValue: gauge("total_inventory_value", "Sum of effective price times stock."),
		LowStockCount:       gauge("low_stock_count", "Products with at least one low stock level."),
		TotalItems:          gauge("total_items", "Number of catalog products."),
	}
	reg.MustRegister(g.TotalSales, g.TotalVialsSold, g.TotalInventoryValue, g.LowStockCount, g.TotalItems)
	return g
}

func (g *InventoryGauges) RecordInventory(stats inventory.Stats) {
	g.TotalSales.Set(stats.TotalSales.InexactFloat64())
	g.TotalVialsSold.Set(float64(stats.TotalVialsSold))
	g.TotalInventoryValue.Set(stats.TotalInventoryValue.InexactFloat64())
	g.LowStockCount.Set(float64(stats.LowStockCount))
	g.TotalItems.Set(float64(stats.TotalItems))
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
