package domain

import "errors"

// ErrProductNotFound marks a lookup of a product id that is not in the
// catalog. Query-style operations translate it into an empty result.
var ErrProductNotFound = errors.New("product not found")
