package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	applog "continental/internal/log"
)

// seedIfEmpty inserts a small demo catalog when no categories exist.
func seedIfEmpty(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.L().Info().Msg("seed: inserting demo categories/materials/products")

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`INSERT INTO categories(name) VALUES ('Valves'),('Flanges'),('Pipes'),('Fittings')`,
		`INSERT INTO materials(name, grades) VALUES
		  ('Stainless Steel','["304","316L"]'),
		  ('Carbon Steel','["A105","A350 LF2"]'),
		  ('Duplex Steel','["S31803","S32205"]')`,
		`INSERT INTO products(title, slug, category_id, material_id, short_description, full_description,
		   og_description, twitter_description, facebook_description, stock_status, base_price, is_offer, discount_type, discount_value)
		 VALUES
		  ('Ball Valve 2 Piece','ball-valve-2-piece',1,1,'Full bore ball valve','Two piece body, PTFE seats.','','','','IN_STOCK',NULL,0,'PERCENTAGE',0),
		  ('Weld Neck Flange','weld-neck-flange',2,2,'ASME B16.5 weld neck flange','Forged weld neck flange.','','','','IN_STOCK',NULL,1,'PERCENTAGE',10),
		  ('Seamless Pipe','seamless-pipe',3,1,'Seamless pipe, schedule 40','Cold drawn seamless pipe.','','','','OUT_OF_STOCK',85.00,0,'PERCENTAGE',0),
		  ('Butterfly Valve','butterfly-valve',1,NULL,'Wafer butterfly valve','Lug and wafer patterns available.','','','','IN_STOCK',NULL,0,'PERCENTAGE',0)`,
		`INSERT INTO product_pricing(product_id, material_id, grade, size, price) VALUES
		  (1,1,'304','1"',42.00),
		  (1,1,'316L','1"',55.00),
		  (1,3,'S31803','2"',96.00),
		  (2,2,'A105','4"',38.50),
		  (2,2,'A350 LF2','4"',44.00)`,
		`INSERT INTO homepage_items(section_key, item_id, sort_order) VALUES
		  ('MAIN_CATEGORIES',1,0),('MAIN_CATEGORIES',2,1),('MAIN_CATEGORIES',3,2),
		  ('FEATURED_SOLUTIONS',1,0),('FEATURED_SOLUTIONS',3,1),
		  ('SUPPLY_OFFERS',2,0)`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SeedAdmin makes sure an admin account with username exists. The password is
// only used when the account is created.
func SeedAdmin(ctx context.Context, db *sqlx.DB, username, password string) (created bool, err error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, nil
	}
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM admin_users WHERE username = ?`, username); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO admin_users(username, password_hash) VALUES(?, ?)`, username, string(hash))
	if err != nil {
		if IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
