package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusOrdered  PurchaseStatus = "ordered"
	StatusReceived PurchaseStatus = "received"
)

const (
	SourcePersonal SourceType = "personal"
	SourceBusiness SourceType = "business"
)

type (
	PurchaseStatus string

	// SourceType records which account an expense was paid from.
	SourceType string

	Date struct {
		time.Time
	}

	Money struct {
		Pence int64
	}

	// Order is a single sales order from a platform (Etsy, eBay, direct...).
	Order struct {
		ID        int64
		PlacedOn  Date
		Platform  string
		Reference string
		ProductID int64
		Quantity  int64
		Gross     Money
		Fees      Money
		Payout    Money
		Printed   bool
		Shipped   bool
		Produced  bool
		COGS      Money // set when stock is consumed for the order
	}

	Product struct {
		ID   int64
		SKU  string
		Name string
	}

	// StockItem is a raw material tracked in batches.
	StockItem struct {
		ID           int64
		Name         string
		Unit         string // e.g. "g", "ml", "pcs"
		ReorderLevel float64
		OnHand       float64 // derived from remaining batch quantities
	}

	// StockBatch is a received quantity of a stock item at a unit cost.
	// FIFO consumption depletes Remaining oldest ReceivedOn first.
	StockBatch struct {
		ID         int64
		ItemID     int64
		ReceivedOn Date
		Quantity   float64
		Remaining  float64
		UnitCost   Money
	}

	PurchaseOrder struct {
		ID         int64
		OrderedOn  Date
		Vendor     string
		ItemID     int64
		Quantity   float64
		UnitCost   Money
		Status     PurchaseStatus
		ReceivedOn Date // zero until received
	}

	// RecipeLine maps a product to a stock item quantity per unit produced.
	RecipeLine struct {
		ID        int64
		ProductID int64
		ItemID    int64
		Quantity  float64
	}

	Expense struct {
		ID          int64
		SpentOn     Date
		Description string
		Amount      Money
		Category    string
		Vendor      string
		PaidBy      string
		Source      SourceType
		Notes       string
	}

	MileageLog struct {
		ID            int64
		TraveledOn    Date
		Person        string
		Miles         float64
		StartLocation string
		EndLocation   string
		Notes         string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidMiles     = errors.New("invalid miles")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyVendor      = errors.New("empty vendor")
	ErrEmptyPerson      = errors.New("empty person")
	ErrEmptyName        = errors.New("empty name")
)

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO-8601 YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO returns the date formatted as YYYY-MM-DD. All dates cross process
// boundaries in this format.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Pence <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (o Order) Validate() error {
	if err := o.PlacedOn.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(o.Platform) == "" {
		return errors.New("empty platform")
	}
	if strings.TrimSpace(o.Reference) == "" {
		return errors.New("empty order reference")
	}
	if o.ProductID <= 0 {
		return errors.New("missing product")
	}
	if o.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if o.Gross.Pence <= 0 {
		return ErrInvalidAmount
	}
	if o.Fees.Pence < 0 || o.Payout.Pence < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s StockItem) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(s.Unit) == "" {
		return errors.New("empty unit")
	}
	if s.ReorderLevel < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func (p PurchaseOrder) Validate() error {
	if err := p.OrderedOn.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Vendor) == "" {
		return ErrEmptyVendor
	}
	if p.ItemID <= 0 {
		return errors.New("missing stock item")
	}
	if p.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if err := p.UnitCost.Validate(); err != nil {
		return err
	}
	return nil
}

func (l RecipeLine) Validate() error {
	if l.ProductID <= 0 {
		return errors.New("missing product")
	}
	if l.ItemID <= 0 {
		return errors.New("missing stock item")
	}
	if l.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.SpentOn.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	switch e.Source {
	case SourcePersonal, SourceBusiness:
	default:
		return errors.New("invalid source type")
	}
	return nil
}

func (m MileageLog) Validate() error {
	if err := m.TraveledOn.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(m.Person) == "" {
		return ErrEmptyPerson
	}
	if m.Miles <= 0 {
		return ErrInvalidMiles
	}
	return nil
}
