package enums

import "fmt"

// ProductStatus is the admission outcome recorded on a product.
type ProductStatus string

const (
	ProductStatusSuccess        ProductStatus = "success"
	ProductStatusWarning        ProductStatus = "warning"
	ProductStatusPartialSuccess ProductStatus = "partial_success"
)

var validProductStatuses = []ProductStatus{
	ProductStatusSuccess,
	ProductStatusWarning,
	ProductStatusPartialSuccess,
}

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}
