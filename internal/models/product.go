package models

type Product struct {
	ID          string  `db:"id"`
	Tier        string  `db:"tier"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	BasePrice   float64 `db:"base_price"`
	MaxCovered  int     `db:"max_covered"`

	Riders []ProductRider `db:"riders"`
}

type ProductRider struct {
	ID          string  `db:"id"`
	ProductID   string  `db:"product_id"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	Price       float64 `db:"price"`
}

const (
	ProductTierMemberOnly     = "member_only"
	ProductTierMemberFamily   = "member_family"
	ProductTierMemberExtended = "member_extended"
)

// Each dependent added to a quote loads the base premium by this fraction.
const DependentPriceLoading = 0.15
