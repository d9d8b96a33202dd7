package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('customer','admin') NOT NULL DEFAULT 'customer',
		name VARCHAR(255) NULL,
		pii TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		image VARCHAR(512) NOT NULL,
		category VARCHAR(128) NOT NULL,
		released BOOLEAN NOT NULL DEFAULT TRUE,
		honeypot BOOLEAN NOT NULL DEFAULT FALSE,
		payable_to BIGINT UNSIGNED NOT NULL,
		created_by BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_products_released (released)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NULL,
		total DECIMAL(12,2) NOT NULL,
		status ENUM('pending','processing','shipped','delivered','cancelled') NOT NULL DEFAULT 'pending',
		customer_name VARCHAR(255) NOT NULL DEFAULT '',
		customer_email VARCHAR(255) NOT NULL DEFAULT '',
		shipping_address VARCHAR(512) NOT NULL DEFAULT '',
		client_ip VARCHAR(64) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_orders_user_total (user_id, total)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT UNSIGNED NOT NULL,
		product_id BIGINT UNSIGNED NOT NULL,
		quantity INT NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		payable_to BIGINT UNSIGNED NOT NULL,
		honeypot BOOLEAN NOT NULL DEFAULT FALSE,
		KEY idx_order_items_payable (payable_to),
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS answer_submissions (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		answers JSON NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_answer_submissions_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS score_aggregates (
		user_id BIGINT UNSIGNED PRIMARY KEY,
		submission_id BIGINT UNSIGNED NOT NULL,
		ctf_flag_points INT NOT NULL DEFAULT 0,
		pii_points INT NOT NULL DEFAULT 0,
		unreleased_product_points INT NOT NULL DEFAULT 0,
		total_points INT NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS forum_messages (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		body TEXT NOT NULL,
		author_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
