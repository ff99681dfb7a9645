package seeders

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/zolani/khusela/internal/models"
)

// seedProductCatalog seeds the coverage tiers and their add-on riders.
func (seeder *Seeder) seedProductCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := seeder.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}

	products := []struct {
		Tier        string
		Name        string
		Description string
		BasePrice   float64
		MaxCovered  int
		Riders      []struct {
			Name        string
			Description string
			Price       float64
		}
	}{
		{
			Tier:        models.ProductTierMemberOnly,
			Name:        "Member Only",
			Description: "Funeral cover for yourself",
			BasePrice:   89,
			MaxCovered:  1,
			Riders: []struct {
				Name        string
				Description string
				Price       float64
			}{
				{Name: "Accidental Death", Description: "Double payout for accidental death", Price: 25},
				{Name: "Memorial Benefit", Description: "Contribution towards the memorial service", Price: 15},
			},
		},
		{
			Tier:        models.ProductTierMemberFamily,
			Name:        "Member & Family",
			Description: "Cover for you, your spouse and up to 4 children",
			BasePrice:   149,
			MaxCovered:  6,
			Riders: []struct {
				Name        string
				Description string
				Price       float64
			}{
				{Name: "Accidental Death", Description: "Double payout for accidental death", Price: 40},
				{Name: "Grocery Benefit", Description: "Six months of grocery support for the household", Price: 35},
			},
		},
		{
			Tier:        models.ProductTierMemberExtended,
			Name:        "Member & Extended Family",
			Description: "Cover for your household plus parents and in-laws",
			BasePrice:   249,
			MaxCovered:  10,
			Riders: []struct {
				Name        string
				Description string
				Price       float64
			}{
				{Name: "Accidental Death", Description: "Double payout for accidental death", Price: 60},
				{Name: "Repatriation", Description: "Transport of the deceased to their home province", Price: 45},
			},
		},
	}

	for _, product := range products {
		var productID string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO products (tier, name, description, base_price, max_covered)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tier) DO NOTHING
			RETURNING id;`,
			product.Tier, product.Name, product.Description, product.BasePrice, product.MaxCovered,
		).Scan(&productID)

		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRowContext(ctx, `SELECT id FROM products WHERE tier = $1`, product.Tier).Scan(&productID)
		}

		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to insert or retrieve product '%s': %v", product.Tier, err)
		}

		for _, rider := range product.Riders {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO product_riders (product_id, name, description, price)
				SELECT $1, $2, $3, $4
				WHERE NOT EXISTS (
					SELECT 1 FROM product_riders WHERE product_id = $1 AND name = $2
				);`,
				productID, rider.Name, rider.Description, rider.Price,
			)
			if err != nil {
				tx.Rollback()
				log.Fatalf("Failed to insert rider '%s': %v", rider.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit product catalog seed: %v", err)
	}

	log.Println("Product catalog seeded successfully")
}
