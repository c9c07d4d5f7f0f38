package inventory

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteDB implements the DB interface on SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens the database at path and runs pending migrations.
// Use ":memory:" for an in-process database.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows a single writer, and each ":memory:" connection is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	// modernc/sqlite may ignore DSN pragmas for ":memory:"
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

type rowScanner interface{ Scan(...any) error }

func notFound(kind, key string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %w: %s", kind, ErrNotFound, key)
	}
	return fmt.Errorf("get %s: %w", kind, err)
}

func requireAffected(res sql.Result, kind, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %w: %s", kind, ErrNotFound, key)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- Items ---

const itemCols = `id, household_id, name, category, quantity, unit, location, purchase_date, expiry_date, price, barcode, notes, image_url, image_content_type, low_stock_threshold, created_by, created_at, updated_at`

func scanItem(scanner rowScanner) (*Item, error) {
	var item Item
	var purchase, expiry sql.NullTime
	var price sql.NullFloat64

	err := scanner.Scan(
		&item.ID, &item.HouseholdID, &item.Name, &item.Category, &item.Quantity, &item.Unit,
		&item.Location, &purchase, &expiry, &price, &item.Barcode, &item.Notes,
		&item.ImageURL, &item.ImageContentType, &item.LowStockThreshold, &item.CreatedBy,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if purchase.Valid {
		item.PurchaseDate = &purchase.Time
	}
	if expiry.Valid {
		item.ExpiryDate = &expiry.Time
	}
	if price.Valid {
		item.Price = &price.Float64
	}
	return &item, nil
}

// SaveItem inserts or replaces an item
func (s *SQLiteDB) SaveItem(ctx context.Context, item *Item) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO items (`+itemCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, category = excluded.category, quantity = excluded.quantity,
			unit = excluded.unit, location = excluded.location, purchase_date = excluded.purchase_date,
			expiry_date = excluded.expiry_date, price = excluded.price, barcode = excluded.barcode,
			notes = excluded.notes, image_url = excluded.image_url, image_content_type = excluded.image_content_type,
			low_stock_threshold = excluded.low_stock_threshold, updated_at = excluded.updated_at`,
		item.ID, item.HouseholdID, item.Name, string(item.Category), item.Quantity, item.Unit,
		item.Location, nullTime(item.PurchaseDate), nullTime(item.ExpiryDate), nullFloat(item.Price),
		item.Barcode, item.Notes, item.ImageURL, item.ImageContentType, item.LowStockThreshold,
		item.CreatedBy, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by ID
func (s *SQLiteDB) GetItem(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemCols+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err != nil {
		return nil, notFound("item", id, err)
	}
	return item, nil
}

// ListItems returns a household's items, newest first
func (s *SQLiteDB) ListItems(ctx context.Context, householdID string) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemCols+` FROM items WHERE household_id = ? ORDER BY created_at DESC`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]*Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteItem removes an item; its transactions cascade
func (s *SQLiteDB) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return requireAffected(res, "item", id)
}

// --- Transactions ---

const transactionCols = `id, household_id, item_id, delta, type, notes, created_by, created_at`

func scanTransaction(scanner rowScanner) (*Transaction, error) {
	var t Transaction
	err := scanner.Scan(&t.ID, &t.HouseholdID, &t.ItemID, &t.Delta, &t.Type, &t.Notes, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveTransaction inserts a transaction
func (s *SQLiteDB) SaveTransaction(ctx context.Context, t *Transaction) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO inventory_transactions (`+transactionCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.HouseholdID, t.ItemID, t.Delta, string(t.Type), t.Notes, t.CreatedBy, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}

// ListTransactions returns a household's transactions, newest first
func (s *SQLiteDB) ListTransactions(ctx context.Context, householdID string) ([]*Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+transactionCols+` FROM inventory_transactions WHERE household_id = ? ORDER BY created_at DESC`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// --- Households ---

const householdCols = `id, name, description, owner_id, created_at, updated_at`

func scanHousehold(scanner rowScanner) (*Household, error) {
	var h Household
	if err := scanner.Scan(&h.ID, &h.Name, &h.Description, &h.OwnerID, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

// SaveHousehold inserts or updates a household
func (s *SQLiteDB) SaveHousehold(ctx context.Context, h *Household) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO households (`+householdCols+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description, updated_at = excluded.updated_at`,
		h.ID, h.Name, h.Description, h.OwnerID, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save household: %w", err)
	}
	return nil
}

// GetHousehold retrieves a household by ID
func (s *SQLiteDB) GetHousehold(ctx context.Context, id string) (*Household, error) {
	h, err := scanHousehold(s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id))
	if err != nil {
		return nil, notFound("household", id, err)
	}
	return h, nil
}

// --- Members ---

const memberCols = `id, household_id, user_id, role, joined_at`

func scanMember(scanner rowScanner) (*Member, error) {
	var m Member
	if err := scanner.Scan(&m.ID, &m.HouseholdID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteDB) queryMembers(ctx context.Context, where string, args ...any) ([]*Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+memberCols+` FROM household_members `+where+` ORDER BY joined_at ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]*Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// SaveMember inserts or updates a membership
func (s *SQLiteDB) SaveMember(ctx context.Context, m *Member) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO household_members (`+memberCols+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(household_id, user_id) DO UPDATE SET role = excluded.role`,
		m.ID, m.HouseholdID, m.UserID, string(m.Role), m.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("save member: %w", err)
	}
	return nil
}

// GetMember retrieves a user's membership in a household
func (s *SQLiteDB) GetMember(ctx context.Context, householdID, userID string) (*Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberCols+` FROM household_members WHERE household_id = ? AND user_id = ?`, householdID, userID)
	m, err := scanMember(row)
	if err != nil {
		return nil, notFound("member", householdID+"/"+userID, err)
	}
	return m, nil
}

// ListMembers returns the members of a household
func (s *SQLiteDB) ListMembers(ctx context.Context, householdID string) ([]*Member, error) {
	return s.queryMembers(ctx, `WHERE household_id = ?`, householdID)
}

// ListMemberships returns the households a user belongs to
func (s *SQLiteDB) ListMemberships(ctx context.Context, userID string) ([]*Member, error) {
	return s.queryMembers(ctx, `WHERE user_id = ?`, userID)
}

// ListAllMembers returns every membership
func (s *SQLiteDB) ListAllMembers(ctx context.Context) ([]*Member, error) {
	return s.queryMembers(ctx, ``)
}

// DeleteMember removes a user from a household
func (s *SQLiteDB) DeleteMember(ctx context.Context, householdID, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM household_members WHERE household_id = ? AND user_id = ?`, householdID, userID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return requireAffected(res, "member", householdID+"/"+userID)
}

// --- Profiles ---

const profileCols = `user_id, display_name, email, avatar_url, phone, created_at, updated_at`

func scanProfile(scanner rowScanner) (*Profile, error) {
	var p Profile
	if err := scanner.Scan(&p.UserID, &p.DisplayName, &p.Email, &p.AvatarURL, &p.Phone, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile inserts or updates a profile
func (s *SQLiteDB) SaveProfile(ctx context.Context, p *Profile) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO profiles (`+profileCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET display_name = excluded.display_name, email = excluded.email,
			avatar_url = excluded.avatar_url, phone = excluded.phone, updated_at = excluded.updated_at`,
		p.UserID, p.DisplayName, p.Email, p.AvatarURL, p.Phone, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a user's profile
func (s *SQLiteDB) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, `SELECT `+profileCols+` FROM profiles WHERE user_id = ?`, userID))
	if err != nil {
		return nil, notFound("profile", userID, err)
	}
	return p, nil
}

// FindProfileByEmail looks up a profile by case-insensitive email
func (s *SQLiteDB) FindProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileCols+` FROM profiles WHERE email = ? COLLATE NOCASE LIMIT 1`, email)
	p, err := scanProfile(row)
	if err != nil {
		return nil, notFound("profile", email, err)
	}
	return p, nil
}

// --- Settings ---

// SaveSettings inserts or replaces a user's settings
func (s *SQLiteDB) SaveSettings(ctx context.Context, st *Settings) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO user_settings
		(user_id, email_notifications, push_notifications, low_stock_alerts, expiry_alerts, weekly_summary, theme, language, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.UserID, boolInt(st.EmailNotifications), boolInt(st.PushNotifications), boolInt(st.LowStockAlerts),
		boolInt(st.ExpiryAlerts), boolInt(st.WeeklySummary), st.Theme, st.Language, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// GetSettings retrieves a user's settings
func (s *SQLiteDB) GetSettings(ctx context.Context, userID string) (*Settings, error) {
	var st Settings
	var email, push, lowStock, expiry, weekly int
	err := s.db.QueryRowContext(ctx, `SELECT user_id, email_notifications, push_notifications, low_stock_alerts,
		expiry_alerts, weekly_summary, theme, language, updated_at FROM user_settings WHERE user_id = ?`, userID).
		Scan(&st.UserID, &email, &push, &lowStock, &expiry, &weekly, &st.Theme, &st.Language, &st.UpdatedAt)
	if err != nil {
		return nil, notFound("settings", userID, err)
	}
	st.EmailNotifications = email != 0
	st.PushNotifications = push != 0
	st.LowStockAlerts = lowStock != 0
	st.ExpiryAlerts = expiry != 0
	st.WeeklySummary = weekly != 0
	return &st, nil
}

// --- Notifications ---

const notificationCols = `id, user_id, household_id, item_id, type, title, message, read, action_url, created_at`

func scanNotification(scanner rowScanner) (*Notification, error) {
	var n Notification
	var read int
	err := scanner.Scan(&n.ID, &n.UserID, &n.HouseholdID, &n.ItemID, &n.Type, &n.Title, &n.Message, &read, &n.ActionURL, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.Read = read != 0
	return &n, nil
}

// SaveNotification inserts or updates a notification
func (s *SQLiteDB) SaveNotification(ctx context.Context, n *Notification) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO notifications (`+notificationCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET read = excluded.read, title = excluded.title, message = excluded.message`,
		n.ID, n.UserID, n.HouseholdID, n.ItemID, string(n.Type), n.Title, n.Message, boolInt(n.Read), n.ActionURL, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

// GetNotification retrieves a notification by ID
func (s *SQLiteDB) GetNotification(ctx context.Context, id string) (*Notification, error) {
	n, err := scanNotification(s.db.QueryRowContext(ctx, `SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id))
	if err != nil {
		return nil, notFound("notification", id, err)
	}
	return n, nil
}

// ListNotifications returns a user's notifications, newest first
func (s *SQLiteDB) ListNotifications(ctx context.Context, userID string) ([]*Notification, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+notificationCols+` FROM notifications WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// DeleteNotification removes a notification
func (s *SQLiteDB) DeleteNotification(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return requireAffected(res, "notification", id)
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
