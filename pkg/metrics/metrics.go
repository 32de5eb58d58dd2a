// Package metrics 提供 Prometheus 指标集合，包含 HTTP 与收银业务指标
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/posregister/pkg/logger"
)

const namespace = "pos"

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 成功提交的销售单数
	SalesCommittedTotal prometheus.Counter
	// 提交失败次数，按原因区分
	SaleCommitFailuresTotal *prometheus.CounterVec
	// 累计营业额
	RevenueTotal prometheus.Counter
	// 累计售出件数
	ItemsSoldTotal prometheus.Counter
	// 发票号冲突后的重试次数
	InvoiceRetriesTotal prometheus.Counter
	// 单据生成失败次数，按单据类型区分
	DocumentFailuresTotal *prometheus.CounterVec
	// 进行中的收银会话数
	ActiveSessions prometheus.Gauge

	registry *prometheus.Registry
}

// New 创建指标实例，指标注册在独立的 registry 上
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "Total HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "path"}),
		SalesCommittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "sales_committed_total",
			Help:        "Total sales committed",
			ConstLabels: constLabels,
		}),
		SaleCommitFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "sale_commit_failures_total",
			Help:        "Total failed sale commits by reason",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		RevenueTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "revenue_total",
			Help:        "Sum of committed sale totals",
			ConstLabels: constLabels,
		}),
		ItemsSoldTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "items_sold_total",
			Help:        "Total units sold",
			ConstLabels: constLabels,
		}),
		InvoiceRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "invoice_number_retries_total",
			Help:        "Commits retried because of an invoice number collision",
			ConstLabels: constLabels,
		}),
		DocumentFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "document_render_failures_total",
			Help:        "Document rendering failures by kind",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "active_sessions",
			Help:        "Number of open register sessions",
			ConstLabels: constLabels,
		}),
		registry: prometheus.NewRegistry(),
	}
	return m
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	cs := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SalesCommittedTotal,
		m.SaleCommitFailuresTotal,
		m.RevenueTotal,
		m.ItemsSoldTotal,
		m.InvoiceRetriesTotal,
		m.DocumentFailuresTotal,
		m.ActiveSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}

	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// Registry 返回底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 Prometheus 抓取端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SaleRecorder 销售业务指标记录接口
type SaleRecorder interface {
	RecordSaleCommitted(revenue float64, units int)
	RecordSaleFailed(reason string)
	RecordInvoiceRetry()
	RecordDocumentFailure(kind string)
}

// SessionRecorder 收银会话指标记录接口
type SessionRecorder interface {
	SetActiveSessions(n int)
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path, status string, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordSaleCommitted 记录一笔成功销售
func (m *Metrics) RecordSaleCommitted(revenue float64, units int) {
	m.SalesCommittedTotal.Inc()
	m.RevenueTotal.Add(revenue)
	m.ItemsSoldTotal.Add(float64(units))
}

// RecordSaleFailed 记录一次提交失败
func (m *Metrics) RecordSaleFailed(reason string) {
	m.SaleCommitFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordInvoiceRetry 记录发票号冲突重试
func (m *Metrics) RecordInvoiceRetry() {
	m.InvoiceRetriesTotal.Inc()
}

// RecordDocumentFailure 记录单据生成失败
func (m *Metrics) RecordDocumentFailure(kind string) {
	m.DocumentFailuresTotal.WithLabelValues(kind).Inc()
}

// SetActiveSessions 更新进行中的会话数
func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}

// Nop 不记录任何指标，用于测试和关闭指标时
type Nop struct{}

func (Nop) RecordSaleCommitted(float64, int) {}
func (Nop) RecordSaleFailed(string)          {}
func (Nop) RecordInvoiceRetry()              {}
func (Nop) RecordDocumentFailure(string)     {}
func (Nop) SetActiveSessions(int)            {}
