package repos

import (
	"log"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

const dsnParams = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"

// All demo accounts share one password; hash it once per process.
var demoHash = sync.OnceValue(func() string {
	h, _ := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), 12)
	return string(h)
})

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", withParams(dsn))
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	if strings.HasPrefix(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (categories/products)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func withParams(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + dsnParams
	}
	return dsn + "?" + dsnParams
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Users
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('CUSTOMER','SELLER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS addresses(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  line1 TEXT NOT NULL,
  line2 TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL,
  state TEXT NOT NULL DEFAULT '',
  postal_code TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_addresses_user ON addresses(user_id);

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

-- Products; money is decimal text
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  is_active INTEGER NOT NULL DEFAULT 1,
  average_rating REAL NOT NULL DEFAULT 0,
  review_count INTEGER NOT NULL DEFAULT 0,
  total_orders INTEGER NOT NULL DEFAULT 0,
  category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
  seller_id TEXT NOT NULL REFERENCES users(id),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_name       ON products(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_products_seller     ON products(seller_id);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Carts
CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS cart_items(
  cart_id    TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  created_at TEXT,
  updated_at TEXT,
  PRIMARY KEY (cart_id, product_id)
);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL REFERENCES users(id),
  shipping_address_id TEXT REFERENCES addresses(id) ON DELETE SET NULL,
  billing_address_id  TEXT REFERENCES addresses(id) ON DELETE SET NULL,
  subtotal TEXT NOT NULL,
  shipping_fee TEXT NOT NULL,
  tax TEXT NOT NULL,
  discount TEXT NOT NULL,
  total_amount TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  shipping_method TEXT NOT NULL,
  customer_notes TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  id TEXT PRIMARY KEY,
  order_id  TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  price TEXT NOT NULL,
  name TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id);

CREATE TABLE IF NOT EXISTS payments(
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE REFERENCES orders(id) ON DELETE CASCADE,
  amount TEXT NOT NULL,
  method TEXT NOT NULL CHECK (method IN ('SSL_COMMERZ','CASH_ON_DELIVERY')),
  status TEXT NOT NULL CHECK (status IN ('PENDING','COMPLETED','FAILED','CANCELLED')),
  transaction_id TEXT NOT NULL UNIQUE,
  val_id TEXT NOT NULL DEFAULT '',
  bank_transaction TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS gateway_transactions(
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL UNIQUE,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  amount TEXT NOT NULL,
  currency TEXT NOT NULL,
  session_key TEXT NOT NULL DEFAULT '',
  gateway_url TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL CHECK (status IN ('INITIATED','SUCCESS','FAILED','CANCELLED')),
  val_id TEXT NOT NULL DEFAULT '',
  bank_transaction TEXT NOT NULL DEFAULT '',
  cus_name TEXT NOT NULL DEFAULT '',
  cus_email TEXT NOT NULL DEFAULT '',
  cus_phone TEXT NOT NULL DEFAULT '',
  cus_address TEXT NOT NULL DEFAULT '',
  attempts INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_gateway_tx_order ON gateway_transactions(order_id);

-- Reviews
CREATE TABLE IF NOT EXISTS reviews(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  comment TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(product_id, user_id)
);

-- Wishlists
CREATE TABLE IF NOT EXISTS wishlist_items(
  user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (user_id, product_id)
);

CREATE TABLE IF NOT EXISTS idempotency_keys(
  idem_key TEXT PRIMARY KEY,
  order_id TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo seller/categories/products")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO users(id,email,name,password_hash,role) VALUES(?,?,?,?,?)
	  ON CONFLICT DO NOTHING`, "u-seller", "seller@bazaar.test", "Seller", demoHash(), "SELLER")

	tx.MustExec(`INSERT INTO categories(id,name) VALUES
	  ('cat-electronics','Electronics'),
	  ('cat-fashion','Fashion'),
	  ('cat-home','Home & Living')`)

	tx.MustExec(`INSERT INTO products(id,name,slug,description,price,stock,category_id,seller_id) VALUES
	  ('p-headphones','Wireless Headphones','wireless-headphones','Over-ear, 30h battery','2500',25,'cat-electronics','u-seller'),
	  ('p-kettle','Electric Kettle','electric-kettle','1.7L stainless steel','1800',10,'cat-home','u-seller'),
	  ('p-tshirt','Cotton T-Shirt','cotton-t-shirt','Unisex, 100% cotton','450',3,'cat-fashion','u-seller')`)

	return tx.Commit()
}

// seedUsers ensures demo customers and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role string) u {
		return u{ID: id, Email: email, Name: name, Role: role, Hash: demoHash()}
	}

	users := []u{
		mk("u-alice", "alice@bazaar.test", "Alice", "CUSTOMER"),
		mk("u-bob", "bob@bazaar.test", "Bob", "CUSTOMER"),
		mk("u-admin", "admin@bazaar.test", "Admin", "ADMIN"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
