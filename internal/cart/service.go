package cart

import (
	"context"
	"fmt"
	"slices"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/catalog"
)

// ItemInput is what a client sends to add, update or remove a line.
type ItemInput struct {
	ProductID      string   `json:"productId"`
	Quantity       int      `json:"quantity"`
	SelectedSize   string   `json:"selectedSize"`
	SelectedColors []string `json:"selectedColors"`
}

func (in ItemInput) key() LineKey {
	return NewLineKey(in.ProductID, in.SelectedSize, in.SelectedColors)
}

// MaxQuantity bounds the quantity of a single cart line.
const MaxQuantity = 1000

type Service struct {
	repo     Repository
	products catalog.Reader
}

func NewService(repo Repository, products catalog.Reader) *Service {
	return &Service{repo: repo, products: products}
}

// Get returns the user's cart, or an empty one when none has been created yet.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &Cart{UserID: userID, Items: []Item{}}, nil
	}
	return c, nil
}

// AddItem merges into the line with the same key or appends a new snapshot line.
func (s *Service) AddItem(ctx context.Context, userID string, in ItemInput) (*Cart, error) {
	if in.ProductID == "" || in.Quantity <= 0 || in.Quantity > MaxQuantity || in.SelectedSize == "" {
		return nil, ErrInvalidItem
	}

	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	c, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &Cart{UserID: userID, Items: []Item{}}
	}

	if i := c.indexOf(in.key()); i >= 0 {
		if c.Items[i].Quantity+in.Quantity > MaxQuantity {
			return nil, ErrInvalidItem
		}
		c.Items[i].Quantity += in.Quantity
	} else {
		colors := slices.Clone(in.SelectedColors)
		if colors == nil {
			colors = []string{}
		}
		c.Items = append(c.Items, Item{
			ProductID:      product.ID,
			Name:           product.Name,
			Images:         slices.Clone(product.Images),
			Price:          product.Price,
			SelectedSize:   in.SelectedSize,
			SelectedColors: colors,
			Quantity:       in.Quantity,
		})
	}

	if err := s.repo.SaveCart(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateQuantity sets the quantity of an existing line. Zero is not a removal.
func (s *Service) UpdateQuantity(ctx context.Context, userID string, in ItemInput) (*Cart, error) {
	if in.ProductID == "" || in.Quantity <= 0 || in.Quantity > MaxQuantity || in.SelectedSize == "" {
		return nil, ErrInvalidItem
	}

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := c.indexOf(in.key())
	if i < 0 {
		return nil, ErrItemNotFound
	}
	c.Items[i].Quantity = in.Quantity

	if err := s.repo.SaveCart(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID string, in ItemInput) (*Cart, error) {
	if in.ProductID == "" || in.SelectedSize == "" {
		return nil, ErrInvalidItem
	}

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := c.indexOf(in.key())
	if i < 0 {
		return nil, ErrItemNotFound
	}
	c.Items = slices.Delete(c.Items, i, i+1)

	if err := s.repo.SaveCart(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear empties an existing cart but keeps the cart itself.
func (s *Service) Clear(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.Items = []Item{}

	if err := s.repo.SaveCart(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) load(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}
	return c, nil
}
