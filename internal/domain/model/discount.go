package model

// DiscountCode reduces the base price of one product type. Codes are stored
// uppercase and matched case-insensitively; only active codes count.
type DiscountCode struct {
	Code        string
	ProductType ProductType
	PercentOff  int // 0..100
	IsActive    bool
}

// Apply returns the price after discount. Inactive codes change nothing.
func (d *DiscountCode) Apply(base int64) int64 {
	if d == nil || !d.IsActive || d.PercentOff <= 0 {
		return base
	}
	if d.PercentOff >= 100 {
		return 0
	}
	return base * int64(100-d.PercentOff) / 100
}
