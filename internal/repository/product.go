package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"golang.org/x/exp/slices"

	"github.com/zolani/khusela/internal/models"
)

type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetOne(id string) (*models.Product, bool, error)
}

type ProductRepositoryImpl struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &ProductRepositoryImpl{db: db}
}

func (repo *ProductRepositoryImpl) GetAll() ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		SELECT
			p.id,
			p.tier,
			p.name,
			p.description,
			p.base_price,
			p.max_covered,
			r.id AS rider_id,
			r.name AS rider_name,
			r.description AS rider_description,
			r.price AS rider_price
		FROM
			products p
		LEFT JOIN
			product_riders r
		ON
			p.id = r.product_id`

	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	productMap := make(map[string]*models.Product)

	for rows.Next() {
		var (
			productID        string
			tier             string
			name             string
			description      string
			basePrice        float64
			maxCovered       int
			riderID          *string
			riderName        *string
			riderDescription *string
			riderPrice       *float64
		)

		if err := rows.Scan(
			&productID,
			&tier,
			&name,
			&description,
			&basePrice,
			&maxCovered,
			&riderID,
			&riderName,
			&riderDescription,
			&riderPrice,
		); err != nil {
			return nil, err
		}

		product, exists := productMap[productID]
		if !exists {
			product = &models.Product{
				ID:          productID,
				Tier:        tier,
				Name:        name,
				Description: description,
				BasePrice:   basePrice,
				MaxCovered:  maxCovered,
				Riders:      []models.ProductRider{},
			}
			productMap[productID] = product
		}

		if riderID != nil && riderName != nil {
			rider := models.ProductRider{
				ID:        *riderID,
				ProductID: productID,
				Name:      *riderName,
			}
			if riderDescription != nil {
				rider.Description = *riderDescription
			}
			if riderPrice != nil {
				rider.Price = *riderPrice
			}
			product.Riders = append(product.Riders, rider)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var products []models.Product
	for _, product := range productMap {
		products = append(products, *product)
	}

	// Cheapest tier first for display.
	slices.SortFunc(products, func(a, b models.Product) int {
		switch {
		case a.BasePrice < b.BasePrice:
			return -1
		case a.BasePrice > b.BasePrice:
			return 1
		default:
			return 0
		}
	})

	return products, nil
}

func (repo *ProductRepositoryImpl) GetOne(id string) (*models.Product, bool, error) {
	products, err := repo.GetAll()
	if err != nil {
		return nil, false, err
	}

	for i := range products {
		if products[i].ID == id {
			return &products[i], true, nil
		}
	}

	return nil, false, nil
}
