package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cart-assistant/internal/pkg/common"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore 以 SQLite 實作的型錄/偏好儲存
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore 開啟資料庫並建立缺少的資料表
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite 單寫者設計：只保留一條共享連接，讓 database/sql 序列化寫入，
	// 避免多條底層連接互搶寫鎖
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// createTables 建立缺少的資料表
func (s *SQLiteStore) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			brand TEXT NOT NULL,
			category TEXT NOT NULL,
			price REAL NOT NULL,
			is_bio BOOLEAN,
			is_vegan BOOLEAN,
			is_available BOOLEAN
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			bio_preference BOOLEAN,
			vegan_preference BOOLEAN
		)`,
		`CREATE TABLE IF NOT EXISTS user_preferences (
			user_id TEXT,
			category TEXT,
			brand TEXT,
			PRIMARY KEY (user_id, category)
		)`,
		`CREATE TABLE IF NOT EXISTS user_dislikes (
			user_id TEXT,
			brand TEXT,
			PRIMARY KEY (user_id, brand)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// Close 關閉資料庫連接
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB 回傳底層連接，供自訂查詢使用
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// GetUser 取得使用者檔案，包含偏好品牌與排除品牌
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*common.UserProfile, error) {
	profile := &common.UserProfile{
		FavoriteBrands: make(map[string]string),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, bio_preference, vegan_preference
		FROM users
		WHERE user_id = ?
	`, userID).Scan(&profile.UserID, &profile.Name, &profile.BioPreference, &profile.VeganPreference)

	if err == sql.ErrNoRows {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, brand FROM user_preferences WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user preferences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, brand string
		if err := rows.Scan(&category, &brand); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		profile.FavoriteBrands[category] = brand
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}

	dislikeRows, err := s.db.QueryContext(ctx, `
		SELECT brand FROM user_dislikes WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user dislikes: %w", err)
	}
	defer dislikeRows.Close()

	for dislikeRows.Next() {
		var brand string
		if err := dislikeRows.Scan(&brand); err != nil {
			return nil, fmt.Errorf("failed to scan dislike: %w", err)
		}
		profile.Dislikes = append(profile.Dislikes, brand)
	}
	if err := dislikeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dislikes: %w", err)
	}

	return profile, nil
}

// SetUserPreference 寫入偏好品牌，(user_id, category) 唯一，後寫者勝
func (s *SQLiteStore) SetUserPreference(ctx context.Context, userID, category, brand string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO user_preferences (user_id, category, brand)
		VALUES (?, ?, ?)
	`, userID, category, brand)

	if err != nil {
		return fmt.Errorf("failed to set user preference: %w", err)
	}

	return nil
}

// SearchProducts 搜尋可購買的商品。給定 userID 時排除其不喜歡的品牌、
// 套用 vegan 需求，並以該類別的偏好品牌優先、其次價格升冪排序。
func (s *SQLiteStore) SearchProducts(ctx context.Context, query, userID, category string, limit int) ([]common.Product, error) {
	var profile *common.UserProfile
	if userID != "" {
		var err error
		profile, err = s.GetUser(ctx, userID)
		if err != nil && err != common.ErrUserNotFound {
			return nil, err
		}
	}

	sqlText := `SELECT id, name, brand, category, price, is_bio, is_vegan, is_available
		FROM products WHERE is_available = 1`
	var params []interface{}

	if query != "" {
		sqlText += " AND (name LIKE ? OR brand LIKE ? OR category LIKE ?)"
		search := "%" + query + "%"
		params = append(params, search, search, search)
	}

	if category != "" {
		sqlText += " AND category = ?"
		params = append(params, category)
	}

	preferredBrand := ""
	if profile != nil {
		if len(profile.Dislikes) > 0 {
			placeholders := strings.TrimRight(strings.Repeat("?,", len(profile.Dislikes)), ",")
			sqlText += fmt.Sprintf(" AND brand NOT IN (%s)", placeholders)
			for _, brand := range profile.Dislikes {
				params = append(params, brand)
			}
		}

		if profile.VeganPreference {
			sqlText += " AND is_vegan = 1"
		}

		if category != "" {
			preferredBrand, _ = profile.PreferredBrand(category)
		}
	}

	// 偏好品牌排最前，其餘依價格升冪
	if preferredBrand != "" {
		sqlText += " ORDER BY (brand = ?) DESC, price ASC LIMIT ?"
		params = append(params, preferredBrand, limit)
	} else {
		sqlText += " ORDER BY price ASC LIMIT ?"
		params = append(params, limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	var products []common.Product
	for rows.Next() {
		var p common.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Category, &p.Price, &p.IsBio, &p.IsVegan, &p.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// SeedProducts 寫入商品資料（已存在則覆蓋）
func (s *SQLiteStore) SeedProducts(ctx context.Context, products []common.Product) error {
	for _, p := range products {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO products
			(id, name, brand, category, price, is_bio, is_vegan, is_available)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.Name, p.Brand, p.Category, p.Price, p.IsBio, p.IsVegan, p.IsAvailable)
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	return nil
}

// SeedUser 寫入使用者資料與其偏好（已存在則覆蓋）
func (s *SQLiteStore) SeedUser(ctx context.Context, profile *common.UserProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO users (user_id, name, bio_preference, vegan_preference)
		VALUES (?, ?, ?, ?)
	`, profile.UserID, profile.Name, profile.BioPreference, profile.VeganPreference)
	if err != nil {
		return fmt.Errorf("failed to seed user %s: %w", profile.UserID, err)
	}

	for category, brand := range profile.FavoriteBrands {
		if err := s.SetUserPreference(ctx, profile.UserID, category, brand); err != nil {
			return err
		}
	}

	for _, brand := range profile.Dislikes {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO user_dislikes (user_id, brand)
			VALUES (?, ?)
		`, profile.UserID, brand)
		if err != nil {
			return fmt.Errorf("failed to seed dislike: %w", err)
		}
	}

	return nil
}
