package orders

// Cart is the pre-order staging structure. Unlike the server-side item
// list, which keeps one row per add-item call, the cart merges repeated
// additions of the same product by summing amounts.
type Cart struct {
	lines []CartLine
}

type CartLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	PriceCents  int    `json:"price_cents,omitempty"`
	Amount      int    `json:"amount"`
}

func NewCart() *Cart { return &Cart{} }

func (c *Cart) Add(line CartLine) error {
	if line.ProductID == "" {
		return ValidationError{Field: "product_id", Message: "product id is required"}
	}
	if line.Amount < 1 {
		return ValidationError{Field: "amount", Message: "amount must be at least 1"}
	}
	for i := range c.lines {
		if c.lines[i].ProductID == line.ProductID {
			c.lines[i].Amount += line.Amount
			return nil
		}
	}
	c.lines = append(c.lines, line)
	return nil
}

func (c *Cart) UpdateAmount(productID string, amount int) error {
	if amount < 1 {
		return ValidationError{Field: "amount", Message: "amount must be at least 1"}
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Amount = amount
			return nil
		}
	}
	return ErrProductNotFound
}

func (c *Cart) Remove(productID string) {
	out := c.lines[:0]
	for _, l := range c.lines {
		if l.ProductID != productID {
			out = append(out, l)
		}
	}
	c.lines = out
}

func (c *Cart) Lines() []CartLine { return c.lines }

func (c *Cart) SubtotalCents() int {
	total := 0
	for _, l := range c.lines {
		total += l.PriceCents * l.Amount
	}
	return total
}

// ItemCount is the number of units, not the number of lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Amount
	}
	return n
}

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

func (c *Cart) Clear() { c.lines = nil }
