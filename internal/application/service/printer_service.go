package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/pkg/printer"
	"github.com/shopspring/decimal"
)

const receiptFooter = "Thank you for your business!"

// BillReader loads a stored bill with its customer and items
type BillReader interface {
	GetBill(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
}

// PrinterService handles receipt formatting and thermal printing.
type PrinterService struct {
	printer   printer.Printer
	bills     BillReader
	shopName  string
	charWidth int
}

func NewPrinterService(p printer.Printer, bills BillReader, shopName string, charWidth int) *PrinterService {
	return &PrinterService{
		printer:   p,
		bills:     bills,
		shopName:  shopName,
		charWidth: charWidth,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

func (s *PrinterService) GetStatus(ctx context.Context) *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printer.Type() != printer.TypeNone,
		Connected:  s.printer.Connected(ctx),
		Type:       s.printer.Type(),
	}
}

// BuildReceipt composes the printable view of a stored bill
func (s *PrinterService) BuildReceipt(ctx context.Context, billID uuid.UUID) (*entity.Receipt, error) {
	bill, err := s.bills.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	return NewReceipt(bill, s.shopName), nil
}

// PrintBill prints the receipt of a stored bill. The receipt is returned even when
// the printer fails so the client can fall back to an on-screen copy.
func (s *PrinterService) PrintBill(ctx context.Context, billID uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.BuildReceipt(ctx, billID)
	if err != nil {
		return nil, err
	}

	data := FormatReceipt(receipt, s.charWidth)
	if err := s.printer.Print(ctx, data); err != nil {
		log.Printf("Printer error (bill %s): %v", receipt.BillNumber, err)
		return receipt, fmt.Errorf("failed to print receipt: %w", err)
	}

	return receipt, nil
}

// NewReceipt maps a bill onto the receipt layout
func NewReceipt(bill *entity.Bill, shopName string) *entity.Receipt {
	receipt := &entity.Receipt{
		ShopName:      shopName,
		BillNumber:    bill.BillNumber,
		Date:          bill.CreatedAt.Format("2006-01-02 15:04"),
		Items:         make([]entity.ReceiptItem, 0, len(bill.Items)),
		SubTotal:      entity.FromCents(bill.SubTotal),
		TaxPercent:    bill.TaxPercent,
		TaxAmount:     entity.FromCents(bill.TaxAmount),
		Discount:      entity.FromCents(bill.Discount),
		Total:         entity.FromCents(bill.Total),
		PaymentMethod: bill.PaymentMethod.Label(),
		Footer:        receiptFooter,
	}

	if c := bill.Customer; c != nil {
		receipt.Customer = entity.ReceiptCustomer{Name: c.Name, Phone: c.Phone}
		if c.Email != nil {
			receipt.Customer.Email = *c.Email
		}
		if c.Address != nil {
			receipt.Customer.Address = *c.Address
		}
	}

	for _, item := range bill.Items {
		name := "Product"
		if item.Product != nil && item.Product.Name != "" {
			name = item.Product.Name
		}
		receipt.Items = append(receipt.Items, entity.ReceiptItem{
			Name:      name,
			Quantity:  item.Quantity,
			UnitPrice: entity.FromCents(item.UnitPrice),
			Total:     entity.FromCents(item.Total),
		})
	}

	return receipt
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)

	// Header
	doc.Align(printer.AlignCenter).
		Bold(true).
		FontSize(printer.FontDouble).
		Line(r.ShopName).
		FontSize(printer.FontNormal).
		Bold(false).
		Align(printer.AlignLeft).
		Rule('-')

	doc.Columns("Bill:", r.BillNumber).
		Columns("Date:", r.Date)

	if r.Customer.Name != "" {
		doc.Columns("Customer:", r.Customer.Name)
	}
	if r.Customer.Phone != "" {
		doc.Columns("Phone:", r.Customer.Phone)
	}
	if r.Customer.Email != "" {
		doc.Columns("Email:", r.Customer.Email)
	}
	if r.Customer.Address != "" {
		doc.Line(r.Customer.Address)
	}

	doc.Rule('-')

	// Items
	for _, item := range r.Items {
		doc.Columns(fmt.Sprintf("%dx %s", item.Quantity, item.Name), money(item.Total))
		if item.Quantity > 1 {
			doc.Line(fmt.Sprintf("  @ %s each", money(item.UnitPrice)))
		}
	}

	doc.Rule('-')

	// Totals
	doc.Columns("Subtotal:", money(r.SubTotal)).
		Columns(fmt.Sprintf("Tax (%s%%):", r.TaxPercent.String()), money(r.TaxAmount))
	if r.Discount.IsPositive() {
		doc.Columns("Discount:", "-"+money(r.Discount))
	}
	doc.Bold(true).
		Columns("TOTAL:", money(r.Total)).
		Bold(false).
		Columns("Payment:", r.PaymentMethod).
		Rule('-')

	// Footer
	doc.Align(printer.AlignCenter).
		Feed(1).
		Line(r.Footer).
		Align(printer.AlignLeft).
		Feed(3).
		PartialCut()

	return doc.Bytes()
}
