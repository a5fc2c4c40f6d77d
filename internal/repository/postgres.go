package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var migrations embed.FS

const uniqueViolation = "23505"

// PostgresStore implements Store on a pgx connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and verifies the connection
func NewPostgresStore(ctx context.Context, databaseURL string, maxConns int) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Migrate applies the embedded schema and seeds the default tables and,
// when the menu is empty, the default menu.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	for _, entry := range entries {
		sql, err := migrations.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	batch := &pgx.Batch{}
	for id := 1; id <= DefaultTableCount; id++ {
		batch.Queue(`INSERT INTO restaurant_tables (id, seat_count) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, id, seatCountFor(id))
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed tables: %w", err)
	}

	var menuCount int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM menu_items`).Scan(&menuCount); err != nil {
		return fmt.Errorf("count menu items: %w", err)
	}
	if menuCount == 0 {
		if err := s.Menu().Upsert(ctx, DefaultMenu()); err != nil {
			return fmt.Errorf("seed menu: %w", err)
		}
	}

	return nil
}

func (s *PostgresStore) Tables() TableRepository { return pgTables{s.pool} }
func (s *PostgresStore) Menu() MenuRepository     { return pgMenu{s.pool} }
func (s *PostgresStore) Orders() OrderRepository  { return pgOrders{s.pool} }
func (s *PostgresStore) Users() UserRepository    { return pgUsers{s.pool} }

// Ping checks that the database is reachable
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool
func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

type pgTables struct{ pool *pgxpool.Pool }

func (r pgTables) List(ctx context.Context) ([]models.Table, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, status, seat_count, updated_at FROM restaurant_tables ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	tables := make([]models.Table, 0)
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.ID, &t.Status, &t.SeatCount, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (r pgTables) Get(ctx context.Context, id int) (*models.Table, error) {
	var t models.Table
	err := r.pool.QueryRow(ctx, `SELECT id, status, seat_count, updated_at FROM restaurant_tables WHERE id = $1`, id).
		Scan(&t.ID, &t.Status, &t.SeatCount, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get table: %w", err)
	}
	return &t, nil
}

func (r pgTables) UpdateStatus(ctx context.Context, id int, status models.TableStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE restaurant_tables SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update table status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTableNotFound
	}
	return nil
}

func (r pgTables) UpdateStatusFrom(ctx context.Context, id int, from, to models.TableStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE restaurant_tables SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update table status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return missingOr(ctx, r.pool, `SELECT EXISTS (SELECT 1 FROM restaurant_tables WHERE id = $1)`, id, ErrTableNotFound)
	}
	return nil
}

type pgMenu struct{ pool *pgxpool.Pool }

func (r pgMenu) ListAvailable(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price, category, available
		FROM menu_items
		WHERE available
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query menu: %w", err)
	}
	defer rows.Close()

	items := make([]models.MenuItem, 0)
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r pgMenu) GetByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, price, category, available FROM menu_items WHERE id = $1`, id)
	item, err := scanMenuItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r pgMenu) Upsert(ctx context.Context, items []models.MenuItem) error {
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`
			INSERT INTO menu_items (id, name, price, category, available)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, price = EXCLUDED.price,
			    category = EXCLUDED.category, available = EXCLUDED.available`,
			item.ID, item.Name, item.Price, item.Category, item.Available)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert menu: %w", err)
	}
	return nil
}

type pgOrders struct{ pool *pgxpool.Pool }

const selectOrders = `
	SELECT o.id::text, o.table_id, o.total, o.status, o.created_at, o.updated_at,
	       u.id::text, u.username
	FROM orders o
	LEFT JOIN users u ON u.id = o.submitted_by`

func (r pgOrders) List(ctx context.Context) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrders+` ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	index := make(map[string]int)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lineRows, err := r.pool.Query(ctx, `
		SELECT order_id::text, menu_item_id, name, price, quantity
		FROM order_items
		ORDER BY order_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var orderID string
		var price pgtype.Numeric
		var l models.OrderLine
		if err := lineRows.Scan(&orderID, &l.MenuItemID, &l.Name, &price, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if l.UnitPrice, err = numericToDecimal(price); err != nil {
			return nil, err
		}
		if i, ok := index[orderID]; ok {
			orders[i].Lines = append(orders[i].Lines, l)
		}
	}
	return orders, lineRows.Err()
}

func (r pgOrders) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, selectOrders+` WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	lines, err := queryLines(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

// CreateForTable locks the table row, inserts the order with its lines and
// marks the table occupied in one transaction.
func (r pgOrders) CreateForTable(ctx context.Context, order models.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var status models.TableStatus
	err = tx.QueryRow(ctx, `SELECT status FROM restaurant_tables WHERE id = $1 FOR UPDATE`, order.TableID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTableNotFound
	}
	if err != nil {
		return fmt.Errorf("lock table: %w", err)
	}
	if status != models.TableAvailable {
		return ErrTableUnavailable
	}

	var submittedBy *string
	if order.SubmittedBy != nil {
		submittedBy = &order.SubmittedBy.ID
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, table_id, total, status, submitted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		order.ID, order.TableID, order.Total, string(order.Status), submittedBy, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if err := insertLines(ctx, tx, order.ID, order.Lines); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE restaurant_tables SET status = 'occupied', updated_at = now() WHERE id = $1`, order.TableID); err != nil {
		return fmt.Errorf("occupy table: %w", err)
	}

	return tx.Commit(ctx)
}

func (r pgOrders) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return missingOr(ctx, r.pool, orderExistsSQL, id, ErrOrderNotFound)
	}
	return nil
}

func (r pgOrders) ReplaceLines(ctx context.Context, id string, from models.OrderStatus, lines []models.OrderLine, total decimal.Decimal) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET total = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, string(from), total)
	if err != nil {
		return fmt.Errorf("update order total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return missingOr(ctx, r.pool, orderExistsSQL, id, ErrOrderNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if err := insertLines(ctx, tx, id, lines); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type pgUsers struct{ pool *pgxpool.Pool }

func (r pgUsers) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, username, role, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r pgUsers) GetByUsername(ctx context.Context, username string) (*models.UserRecord, error) {
	var u models.UserRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, username, role, created_at, password_hash
		FROM users WHERE lower(username) = lower($1)`, username).
		Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r pgUsers) Create(ctx context.Context, user models.UserRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)`,
		user.ID, user.Username, user.PasswordHash, string(user.Role), user.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrUsernameExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r pgUsers) UpdateRole(ctx context.Context, id string, role models.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, string(role))
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

const orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id::text = $1)`

// missingOr tells a conditional update that matched no row apart: notFound
// when the row does not exist, ErrStatusChanged when its status moved on.
func missingOr(ctx context.Context, pool *pgxpool.Pool, existsSQL string, id any, notFound error) error {
	var exists bool
	if err := pool.QueryRow(ctx, existsSQL, id).Scan(&exists); err != nil {
		return fmt.Errorf("check existence: %w", err)
	}
	if !exists {
		return notFound
	}
	return ErrStatusChanged
}

func insertLines(ctx context.Context, tx pgx.Tx, orderID string, lines []models.OrderLine) error {
	batch := &pgx.Batch{}
	for i, l := range lines {
		batch.Queue(`
			INSERT INTO order_items (order_id, position, menu_item_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, i, l.MenuItemID, l.Name, l.UnitPrice, l.Quantity)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range lines {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return br.Close()
}

func queryLines(ctx context.Context, pool *pgxpool.Pool, orderID string) ([]models.OrderLine, error) {
	rows, err := pool.Query(ctx, `
		SELECT menu_item_id, name, price, quantity
		FROM order_items WHERE order_id = $1
		ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	lines := make([]models.OrderLine, 0)
	for rows.Next() {
		var price pgtype.Numeric
		var l models.OrderLine
		if err := rows.Scan(&l.MenuItemID, &l.Name, &price, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if l.UnitPrice, err = numericToDecimal(price); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanMenuItem(row pgx.Row) (models.MenuItem, error) {
	var item models.MenuItem
	var price pgtype.Numeric
	if err := row.Scan(&item.ID, &item.Name, &price, &item.Category, &item.Available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item, err
		}
		return item, fmt.Errorf("scan menu item: %w", err)
	}

	var err error
	item.Price, err = numericToDecimal(price)
	return item, err
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	var total pgtype.Numeric
	var userID, username *string
	if err := row.Scan(&o.ID, &o.TableID, &total, &o.Status, &o.CreatedAt, &o.UpdatedAt, &userID, &username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return o, err
		}
		return o, fmt.Errorf("scan order: %w", err)
	}

	var err error
	if o.Total, err = numericToDecimal(total); err != nil {
		return o, err
	}
	if userID != nil {
		ref := models.UserRef{ID: *userID}
		if username != nil {
			ref.Username = *username
		}
		o.SubmittedBy = &ref
	}
	o.CreatedAt = o.CreatedAt.In(time.UTC)
	o.UpdatedAt = o.UpdatedAt.In(time.UTC)
	o.Lines = make([]models.OrderLine, 0)
	return o, nil
}

// numericToDecimal converts a NUMERIC column value; NULL maps to zero
func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	val, err := n.Value()
	if err != nil {
		return decimal.Zero, fmt.Errorf("read numeric: %w", err)
	}
	s, ok := val.(string)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected numeric value %T", val)
	}
	return decimal.NewFromString(s)
}
