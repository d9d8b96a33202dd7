package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/hackathon-range/shop-backend/internal/config"
	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/repository"
)

// catalog is the starting inventory.  The last two entries are the
// scoring targets: one product nobody outside the admin team should be
// able to read, and one decoy that costs a participant points to buy.
var catalog = []model.Product{
	{Name: "Wireless Headphones", Description: "High-quality wireless headphones with noise cancellation and 30-hour battery life.", Price: 199.99, Image: "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=300&h=200&fit=crop", Category: "Electronics", Released: true},
	{Name: "Smart Watch", Description: "Advanced smartwatch with health monitoring, GPS, and water resistance.", Price: 189.99, Image: "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=300&h=200&fit=crop", Category: "Electronics", Released: true},
	{Name: "Coffee Maker", Description: "Premium coffee maker with programmable settings and thermal carafe.", Price: 129.99, Image: "https://images.unsplash.com/photo-1559056199-641a0ac8b55e?w=300&h=200&fit=crop", Category: "Home & Kitchen", Released: true},
	{Name: "Running Shoes", Description: "Comfortable running shoes with advanced cushioning and breathable material.", Price: 89.99, Image: "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=300&h=200&fit=crop", Category: "Sports & Outdoors", Released: true},
	{Name: "Laptop Backpack", Description: "Durable laptop backpack with multiple compartments and USB charging port.", Price: 49.99, Image: "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=300&h=200&fit=crop", Category: "Accessories", Released: true},
	{Name: "Bluetooth Speaker", Description: "Portable Bluetooth speaker with 360-degree sound and waterproof design.", Price: 79.99, Image: "https://images.unsplash.com/photo-1608043152269-423dbba4e7e1?w=300&h=200&fit=crop", Category: "Electronics", Released: true},
	{Name: "Yoga Mat", Description: "Non-slip yoga mat made from eco-friendly materials with carrying strap.", Price: 29.99, Image: "https://images.unsplash.com/photo-1601925260368-ae2f83cf8b7f?w=300&h=200&fit=crop", Category: "Sports & Outdoors", Released: true},
	{Name: "Desk Lamp", Description: "LED desk lamp with adjustable brightness and USB charging port.", Price: 39.99, Image: "https://images.unsplash.com/photo-1513475382585-d06e58bcb0e0?w=300&h=200&fit=crop", Category: "Home & Kitchen", Released: true},
	{Name: "Prototype Drone X1", Description: "Foldable quadcopter with a 4K gimbal camera, obstacle avoidance and a 45 minute flight time.", Price: 199.00, Image: "https://images.unsplash.com/photo-1473968512647-3e447244af8f?w=300&h=200&fit=crop", Category: "Electronics", Released: false},
	{Name: "Gift Card Bundle", Description: "Ten gift cards for the price of one. Limited time only.", Price: 150.00, Image: "https://images.unsplash.com/photo-1607083206968-13611e3d76db?w=300&h=200&fit=crop", Category: "Deals", Released: true, Honeypot: true},
}

// Seed creates the admin account when it does not exist and loads the
// starting catalog into an empty products table.  Every seeded product is
// payable to the admin.  Seed is idempotent.
func Seed(ctx context.Context, db *sql.DB, cfg config.Config) error {
	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)

	admin, err := users.GetByUsername(ctx, cfg.AdminUsername)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if cfg.AdminPassword == "" {
			return fmt.Errorf("seed: ADMIN_PASSWORD is required to create %q", cfg.AdminUsername)
		}
		id, err := users.Create(ctx, repository.NewUser{
			Username: cfg.AdminUsername,
			Password: cfg.AdminPassword,
			Role:     model.RoleAdmin,
		}, cfg.BcryptCost)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		admin.ID = id
		log.Printf("seed: created admin user %q", cfg.AdminUsername)
	case err != nil:
		return fmt.Errorf("seed admin lookup: %w", err)
	}

	n, err := products.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed count products: %w", err)
	}
	if n > 0 {
		log.Printf("seed: %d products already exist, skipping catalog", n)
		return nil
	}
	for _, p := range catalog {
		p.PayableTo = admin.ID
		if err := products.Create(ctx, &p); err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
	}
	log.Printf("seed: created %d products", len(catalog))
	return nil
}
