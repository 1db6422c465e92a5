package orders

import "time"

type Product struct {
	ID          string
	Name        string
	Description string
	Banner      string
	CategoryID  string
	PriceCents  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID         string
	Table      int
	Name       string
	Status     Status
	TotalCents int // computed on read, never stored
	Items      []Item
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Item freezes the unit price at attach time so later catalog edits do
// not rewrite history.
type Item struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	PriceCents  int
	Amount      int
	CreatedAt   time.Time
}
