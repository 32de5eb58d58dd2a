package application_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	cart "github.com/wyfcoding/posregister/internal/cart/domain"
	catalog "github.com/wyfcoding/posregister/internal/catalog/domain"
	catalogrepo "github.com/wyfcoding/posregister/internal/catalog/infrastructure/repository"
	"github.com/wyfcoding/posregister/internal/document"
	"github.com/wyfcoding/posregister/internal/sale/application"
	"github.com/wyfcoding/posregister/internal/sale/domain"
	"github.com/wyfcoding/posregister/internal/sale/infrastructure/invoice"
	salerepo "github.com/wyfcoding/posregister/internal/sale/infrastructure/repository"
	"github.com/wyfcoding/posregister/pkg/db"
	"github.com/wyfcoding/posregister/pkg/db/dbtest"
	"github.com/wyfcoding/posregister/pkg/mq"
)

var errBoom = errors.New("boom")

type saleRecorder struct {
	mu        sync.Mutex
	committed int
	units     int
	retries   int
	failures  map[string]int
	documents map[string]int
}

func newSaleRecorder() *saleRecorder {
	return &saleRecorder{failures: map[string]int{}, documents: map[string]int{}}
}

func (r *saleRecorder) RecordSaleCommitted(_ float64, units int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed++
	r.units += units
}

func (r *saleRecorder) RecordSaleFailed(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[reason]++
}

func (r *saleRecorder) RecordInvoiceRetry() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries++
}

func (r *saleRecorder) RecordDocumentFailure(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[kind]++
}

// spyCache 按代次缓存；afterGet 只触发一次，用于在读取代次与回写之间插入提交
type spyCache struct {
	mu            sync.Mutex
	invalidations int
	version       int64
	entries       map[int64]*domain.DashboardMetrics
	afterGet      func()
}

func (c *spyCache) Get(context.Context) (*domain.DashboardMetrics, int64, bool) {
	c.mu.Lock()
	m, version := c.entries[c.version], c.version
	hook := c.afterGet
	c.afterGet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return m, version, m != nil
}

func (c *spyCache) Set(_ context.Context, version int64, m *domain.DashboardMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[int64]*domain.DashboardMetrics{}
	}
	c.entries[version] = m
}

func (c *spyCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	c.version++
}

func (c *spyCache) current() (*domain.DashboardMetrics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[c.version]
	return m, ok
}

// recordingPublisher 记录事务内发布的 topic 并转交 outbox；err 非空时模拟 outbox 写入失败
type recordingPublisher struct {
	mu     sync.Mutex
	outbox *mq.OutboxPublisher
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	return p.PublishInTx(ctx, contextx.GetTx(ctx), topic, key, event)
}

func (p *recordingPublisher) PublishInTx(ctx context.Context, tx any, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if err := p.outbox.PublishInTx(ctx, tx, topic, key, event); err != nil {
		return err
	}
	p.topics = append(p.topics, topic)
	return nil
}

// scriptedInvoices 先按脚本返回，脚本用完后生成递增号码
type scriptedInvoices struct {
	mu     sync.Mutex
	script []string
	n      int
}

func (g *scriptedInvoices) Next(time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() { g.n++ }()
	if g.n < len(g.script) {
		return g.script[g.n]
	}
	return fmt.Sprintf("INV-SEQ-%d", g.n)
}

type fixture struct {
	t         *testing.T
	ctx       context.Context
	db        *db.DB
	products  catalog.ProductRepository
	sales     domain.SaleRepository
	recorder  *saleRecorder
	cache     *spyCache
	publisher *recordingPublisher
	engine    *application.SaleCommandService
	ledger    *application.LedgerQueryService
	documents *application.DocumentService
	loc       *time.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	models := append([]any{&catalog.Product{}, &outbox.Message{}}, domain.Models()...)
	d := dbtest.New(t, models...)

	f := &fixture{
		t:         t,
		ctx:       context.Background(),
		db:        d,
		products:  catalogrepo.NewProductRepository(d.DB),
		sales:     salerepo.NewSaleRepository(d.DB),
		recorder:  newSaleRecorder(),
		cache:     &spyCache{},
		publisher: &recordingPublisher{outbox: mq.NewOutboxPublisher(outbox.NewManager(d.DB, slog.Default()))},
		loc:       time.FixedZone("PKT", 5*3600),
	}
	gen, err := invoice.NewGenerator(1)
	require.NoError(t, err)
	f.engine = f.engineWith(f.sales, f.products, gen)
	f.ledger = application.NewLedgerQueryService(d, f.sales, f.products, f.cache, application.ReportOptions{
		LowStockThreshold: 5,
		TopSellersLimit:   10,
		Location:          f.loc,
	})
	f.documents = application.NewDocumentService(f.ledger,
		document.NewExporter(document.ShopInfo{Name: "Stellar Official", Currency: "PKR"}, f.recorder))
	return f
}

func (f *fixture) engineWith(sales domain.SaleRepository, stock application.StockStore, gen domain.InvoiceGenerator) *application.SaleCommandService {
	return application.NewSaleCommandService(f.db, sales, stock, gen, f.publisher, f.cache, f.recorder, f.loc)
}

func (f *fixture) seed(code string, price, cost int64, stock int) {
	f.t.Helper()
	require.NoError(f.t, f.products.Upsert(f.ctx, &catalog.Product{
		Code:      code,
		Name:      "Item " + code,
		Size:      "M",
		Price:     decimal.NewFromInt(price),
		CostPrice: decimal.NewFromInt(cost),
		Stock:     stock,
	}))
}

func (f *fixture) stock(code string) int {
	f.t.Helper()
	p, err := f.products.Get(f.ctx, code)
	require.NoError(f.t, err)
	return p.Stock
}

func (f *fixture) setStock(code string, stock int) {
	f.t.Helper()
	_, err := f.products.AdjustStock(f.ctx, code, stock-f.stock(code))
	require.NoError(f.t, err)
}

// cartOf 按 code, qty 成对参数构造购物车
func (f *fixture) cartOf(pairs ...any) *cart.Cart {
	f.t.Helper()
	c := cart.NewCart()
	for i := 0; i < len(pairs); i += 2 {
		p, err := f.products.Get(f.ctx, pairs[i].(string))
		require.NoError(f.t, err)
		require.NoError(f.t, c.Add(p, pairs[i+1].(int)))
	}
	return c
}

func (f *fixture) count(model any) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) requireNoSaleState() {
	f.t.Helper()
	require.Zero(f.t, f.count(&domain.Sale{}))
	require.Zero(f.t, f.count(&domain.SaleItem{}))
	require.Zero(f.t, f.count(&domain.Customer{}))
	require.Zero(f.t, f.count(&outbox.Message{}))
}

// faultySales 在指定步骤返回错误
type faultySales struct {
	domain.SaleRepository
	failOn string
}

func (s *faultySales) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	if s.failOn == "customer" {
		return errBoom
	}
	return s.SaleRepository.CreateCustomer(ctx, c)
}

func (s *faultySales) CreateSale(ctx context.Context, sale *domain.Sale) error {
	if s.failOn == "sale" {
		return errBoom
	}
	return s.SaleRepository.CreateSale(ctx, sale)
}

func (s *faultySales) CreateItems(ctx context.Context, items []*domain.SaleItem) error {
	if s.failOn == "items" {
		return errBoom
	}
	return s.SaleRepository.CreateItems(ctx, items)
}

// faultyStock 第 failAt 次扣减时失败；afterWrite 为 true 时先完成扣减再报错
type faultyStock struct {
	application.StockStore
	failAt     int
	afterWrite bool
	calls      int
}

func (s *faultyStock) AdjustStock(ctx context.Context, code string, delta int) (int, error) {
	s.calls++
	if s.calls != s.failAt {
		return s.StockStore.AdjustStock(ctx, code, delta)
	}
	if s.afterWrite {
		if _, err := s.StockStore.AdjustStock(ctx, code, delta); err != nil {
			return 0, err
		}
	}
	return 0, errBoom
}

// staleStock 校验阶段读到的库存是过期快照，扣减仍走真实的条件 UPDATE
type staleStock struct {
	application.StockStore
	stock int
}

func (s *staleStock) Get(ctx context.Context, code string) (*catalog.Product, error) {
	p, err := s.StockStore.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	p.Stock = s.stock
	return p, nil
}
