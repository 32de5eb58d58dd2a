package application_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	cartapp "github.com/wyfcoding/posregister/internal/cart/application"
	cart "github.com/wyfcoding/posregister/internal/cart/domain"
	"github.com/wyfcoding/posregister/internal/cart/infrastructure/memory"
	catalog "github.com/wyfcoding/posregister/internal/catalog/domain"
	"github.com/wyfcoding/posregister/internal/sale/application"
	"github.com/wyfcoding/posregister/internal/sale/domain"
	"github.com/wyfcoding/posregister/pkg/metrics"
	"github.com/wyfcoding/posregister/pkg/mq"
)

type CheckoutSuite struct {
	suite.Suite
	f     *fixture
	carts *cartapp.CartApplicationService
	svc   *application.SaleApplicationService
	id    string
}

func TestCheckoutSuite(t *testing.T) {
	suite.Run(t, new(CheckoutSuite))
}

func (s *CheckoutSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.f.seed("C001", 1200, 800, 10)
	s.f.seed("M001", 1500, 900, 4)

	s.carts = cartapp.NewCartApplicationService(memory.NewSessionStore(), s.f.products, mq.LogPublisher{}, metrics.Nop{})
	s.svc = application.NewSaleApplicationService(s.f.engine, s.f.ledger, s.f.documents, s.carts)

	session, err := s.carts.OpenSession(s.f.ctx, "admin")
	s.Require().NoError(err)
	s.id = session.ID
}

func (s *CheckoutSuite) add(code string, qty int) {
	_, err := s.carts.AddItem(s.f.ctx, cartapp.AddItemCommand{SessionID: s.id, Code: code, Qty: qty})
	s.Require().NoError(err)
}

func (s *CheckoutSuite) TestCheckoutKeepsCartUntilNewSale() {
	s.add("C001", 3)

	result, err := s.svc.Checkout(s.f.ctx, application.CheckoutCommand{
		SessionID:      s.id,
		Discount:       decimal.NewFromInt(600),
		CustomerName:   "Ayesha",
		CustomerMobile: "03001234567",
	})
	s.Require().NoError(err)
	s.True(result.DocumentReady)
	s.True(result.Sale.Total.Equal(decimal.NewFromInt(3000)))
	s.Require().NotNil(result.Sale.Customer)
	s.Equal("Ayesha", result.Sale.Customer.Name)
	s.Equal(7, s.f.stock("C001"))

	view, err := s.carts.GetCart(s.f.ctx, s.id)
	s.Require().NoError(err)
	s.Len(view.Lines, 1)
	s.Equal(result.Sale.InvoiceNo, view.LastInvoice)

	_, err = s.svc.Checkout(s.f.ctx, application.CheckoutCommand{SessionID: s.id})
	s.ErrorIs(err, application.ErrAlreadyCheckedOut)
	s.Equal(7, s.f.stock("C001"))
	s.EqualValues(1, s.f.count(&domain.Sale{}))

	view, err = s.svc.NewSale(s.f.ctx, s.id)
	s.Require().NoError(err)
	s.Empty(view.Lines)
	s.Empty(view.LastInvoice)

	s.add("M001", 1)
	_, err = s.svc.Checkout(s.f.ctx, application.CheckoutCommand{SessionID: s.id})
	s.Require().NoError(err)
	s.EqualValues(2, s.f.count(&domain.Sale{}))
}

func (s *CheckoutSuite) TestCheckoutEmptyCart() {
	_, err := s.svc.Checkout(s.f.ctx, application.CheckoutCommand{SessionID: s.id})
	s.ErrorIs(err, cart.ErrEmptyCart)

	view, err := s.carts.GetCart(s.f.ctx, s.id)
	s.Require().NoError(err)
	s.Empty(view.LastInvoice)
}

func (s *CheckoutSuite) TestCheckoutFailureLeavesCartForRetry() {
	s.add("M001", 4)
	s.f.setStock("M001", 2)

	_, err := s.svc.Checkout(s.f.ctx, application.CheckoutCommand{SessionID: s.id})
	s.ErrorIs(err, catalog.ErrInsufficientStock)

	view, err := s.carts.GetCart(s.f.ctx, s.id)
	s.Require().NoError(err)
	s.Equal(4, view.Units)
	s.Empty(view.LastInvoice)

	_, err = s.carts.RemoveItem(s.f.ctx, s.id, "M001")
	s.Require().NoError(err)
	s.add("M001", 2)
	_, err = s.svc.Checkout(s.f.ctx, application.CheckoutCommand{SessionID: s.id})
	s.Require().NoError(err)
	s.Zero(s.f.stock("M001"))
}

func (s *CheckoutSuite) TestCheckoutUnknownSession() {
	_, err := s.svc.Checkout(s.f.ctx, application.CheckoutCommand{SessionID: "missing"})
	s.ErrorIs(err, cart.ErrSessionNotFound)
}

func (s *CheckoutSuite) TestDocuments() {
	s.add("C001", 2)
	s.add("M001", 1)
	result, err := s.svc.Checkout(s.f.ctx, application.CheckoutCommand{SessionID: s.id, CustomerName: "Bilal"})
	s.Require().NoError(err)
	invoiceNo := result.Sale.InvoiceNo

	pdf, err := s.svc.InvoicePDF(s.f.ctx, invoiceNo)
	s.Require().NoError(err)
	s.True(bytes.HasPrefix(pdf, []byte("%PDF")))

	for name, render := range map[string]func() ([]byte, error){
		"invoice": func() ([]byte, error) { return s.svc.InvoiceSpreadsheet(s.f.ctx, invoiceNo) },
		"items":   func() ([]byte, error) { return s.svc.ItemsSpreadsheet(s.f.ctx, invoiceNo) },
		"sales":   func() ([]byte, error) { return s.svc.SalesSpreadsheet(s.f.ctx) },
		"range": func() ([]byte, error) {
			today := time.Now().In(s.f.loc)
			return s.svc.RangeSpreadsheet(s.f.ctx, today, today)
		},
	} {
		data, err := render()
		s.Require().NoError(err, name)
		s.True(bytes.HasPrefix(data, []byte("PK")), name)
	}
	s.Empty(s.f.recorder.documents)

	_, err = s.svc.InvoicePDF(s.f.ctx, "INV-MISSING")
	s.ErrorIs(err, domain.ErrSaleNotFound)
	_, err = s.svc.InvoiceSpreadsheet(s.f.ctx, "INV-MISSING")
	s.ErrorIs(err, domain.ErrSaleNotFound)
}
