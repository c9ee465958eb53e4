package coord

import (
	"time"

	"github.com/abelbrown/catalog/internal/product"
)

// ProductsLoaded is delivered when a list refresh resolves.
type ProductsLoaded struct {
	Products []product.Product
	Err      error
	Dur      time.Duration
}

// ProductSaved is delivered when a create or update resolves.
type ProductSaved struct {
	Product product.Product
	Created bool
	EditID  int64 // target of an update; zero for create
	Err     error
}

// ProductDeleted is delivered when a confirmed delete resolves.
type ProductDeleted struct {
	ID  int64
	Err error
}

// ProductLoaded is delivered when LoadForEdit resolves.
type ProductLoaded struct {
	ID      int64
	Product product.Product
	Err     error
}
