package rewards

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"tadweer/internal/domain"
)

var (
	ErrUnknownContainer = errors.New("unknown container")
	ErrBadQuantity      = errors.New("quantity must be greater than 0")
)

// QuoteItem asks for a quantity of one catalog container.
type QuoteItem struct {
	ContainerID string `json:"containerId"`
	Quantity    int    `json:"quantity"`
}

// QuoteLine is one priced row of a container quote.
type QuoteLine struct {
	Container domain.Container `json:"container"`
	Quantity  int              `json:"quantity"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
}

// ContainerQuote prices a cart against the container catalog.
type ContainerQuote struct {
	Lines []QuoteLine     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// QuoteContainers prices the requested items against the catalog. The whole
// quote fails on the first unknown container or non-positive quantity.
func QuoteContainers(catalog []domain.Container, items []QuoteItem) (ContainerQuote, error) {
	q := ContainerQuote{Lines: []QuoteLine{}, Total: decimal.Zero}
	for _, it := range items {
		if it.Quantity <= 0 {
			return ContainerQuote{}, fmt.Errorf("%w: %s", ErrBadQuantity, it.ContainerID)
		}
		c, ok := findContainer(catalog, it.ContainerID)
		if !ok {
			return ContainerQuote{}, fmt.Errorf("%w: %s", ErrUnknownContainer, it.ContainerID)
		}
		sub := c.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		q.Lines = append(q.Lines, QuoteLine{Container: c, Quantity: it.Quantity, Subtotal: sub})
		q.Total = q.Total.Add(sub)
	}
	return q, nil
}

func findContainer(catalog []domain.Container, id string) (domain.Container, bool) {
	for _, c := range catalog {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Container{}, false
}
