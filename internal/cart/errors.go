package cart

import "errors"

var (
	ErrInvalidItem     = errors.New("productId, selectedSize and a quantity between 1 and 1000 are required")
	ErrProductNotFound = errors.New("product not found")
	ErrCartNotFound    = errors.New("cart not found for this user")
	ErrItemNotFound    = errors.New("item not found in cart")
)
