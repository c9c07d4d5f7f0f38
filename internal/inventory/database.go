package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const (
	itemsBucket         = "items"
	transactionsBucket  = "transactions"
	householdsBucket    = "households"
	membersBucket       = "members"
	profilesBucket      = "profiles"
	settingsBucket      = "settings"
	notificationsBucket = "notifications"
)

var allBuckets = []string{
	itemsBucket,
	transactionsBucket,
	householdsBucket,
	membersBucket,
	profilesBucket,
	settingsBucket,
	notificationsBucket,
}

// DB defines the interface for database operations.
// Lookups of missing records return an error wrapping ErrNotFound.
type DB interface {
	SaveItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context, householdID string) ([]*Item, error)
	// DeleteItem removes the item and its transactions
	DeleteItem(ctx context.Context, id string) error

	SaveTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, householdID string) ([]*Transaction, error)

	SaveHousehold(ctx context.Context, household *Household) error
	GetHousehold(ctx context.Context, id string) (*Household, error)

	SaveMember(ctx context.Context, member *Member) error
	GetMember(ctx context.Context, householdID, userID string) (*Member, error)
	ListMembers(ctx context.Context, householdID string) ([]*Member, error)
	ListMemberships(ctx context.Context, userID string) ([]*Member, error)
	ListAllMembers(ctx context.Context) ([]*Member, error)
	DeleteMember(ctx context.Context, householdID, userID string) error

	SaveProfile(ctx context.Context, profile *Profile) error
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	FindProfileByEmail(ctx context.Context, email string) (*Profile, error)

	SaveSettings(ctx context.Context, settings *Settings) error
	GetSettings(ctx context.Context, userID string) (*Settings, error)

	SaveNotification(ctx context.Context, notification *Notification) error
	GetNotification(ctx context.Context, id string) (*Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]*Notification, error)
	DeleteNotification(ctx context.Context, id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB.
// Records are stored as JSON, one bucket per record kind.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func memberKey(householdID, userID string) string {
	return householdID + "/" + userID
}

func (b *BoltDB) put(bucket, key string, v any) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", bucket, err)
		}
		return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
	})
}

func (b *BoltDB) get(bucket, kind, key string, v any) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s %w: %s", kind, ErrNotFound, key)
		}
		return json.Unmarshal(data, v)
	})
}

func (b *BoltDB) delete(bucket, kind, key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(bucket))
		if bkt.Get([]byte(key)) == nil {
			return fmt.Errorf("%s %w: %s", kind, ErrNotFound, key)
		}
		return bkt.Delete([]byte(key))
	})
}

// scanBucket decodes every record in bucket and keeps those accepted by keep.
func scanBucket[T any](b *BoltDB, bucket string, keep func(*T) bool) ([]*T, error) {
	out := make([]*T, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucket)).ForEach(func(k, v []byte) error {
			rec := new(T)
			if err := json.Unmarshal(v, rec); err != nil {
				return fmt.Errorf("unmarshaling %s: %w", bucket, err)
			}
			if keep == nil || keep(rec) {
				out = append(out, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveItem saves an item to the database
func (b *BoltDB) SaveItem(ctx context.Context, item *Item) error {
	return b.put(itemsBucket, item.ID, item)
}

// GetItem retrieves an item by ID
func (b *BoltDB) GetItem(ctx context.Context, id string) (*Item, error) {
	var item Item
	if err := b.get(itemsBucket, "item", id, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns the items of a household
func (b *BoltDB) ListItems(ctx context.Context, householdID string) ([]*Item, error) {
	return scanBucket(b, itemsBucket, func(i *Item) bool { return i.HouseholdID == householdID })
}

// DeleteItem removes an item and its transaction history
func (b *BoltDB) DeleteItem(ctx context.Context, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		items := tx.Bucket([]byte(itemsBucket))
		if items.Get([]byte(id)) == nil {
			return fmt.Errorf("item %w: %s", ErrNotFound, id)
		}
		if err := items.Delete([]byte(id)); err != nil {
			return err
		}

		txs := tx.Bucket([]byte(transactionsBucket))
		var stale [][]byte
		err := txs.ForEach(func(k, v []byte) error {
			var t Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("unmarshaling transaction: %w", err)
			}
			if t.ItemID == id {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := txs.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveTransaction saves a transaction to the database
func (b *BoltDB) SaveTransaction(ctx context.Context, t *Transaction) error {
	return b.put(transactionsBucket, t.ID, t)
}

// ListTransactions returns the transactions of a household
func (b *BoltDB) ListTransactions(ctx context.Context, householdID string) ([]*Transaction, error) {
	return scanBucket(b, transactionsBucket, func(t *Transaction) bool { return t.HouseholdID == householdID })
}

// SaveHousehold saves a household to the database
func (b *BoltDB) SaveHousehold(ctx context.Context, household *Household) error {
	return b.put(householdsBucket, household.ID, household)
}

// GetHousehold retrieves a household by ID
func (b *BoltDB) GetHousehold(ctx context.Context, id string) (*Household, error) {
	var household Household
	if err := b.get(householdsBucket, "household", id, &household); err != nil {
		return nil, err
	}
	return &household, nil
}

// SaveMember saves a membership, keyed by household and user
func (b *BoltDB) SaveMember(ctx context.Context, member *Member) error {
	return b.put(membersBucket, memberKey(member.HouseholdID, member.UserID), member)
}

// GetMember retrieves a user's membership in a household
func (b *BoltDB) GetMember(ctx context.Context, householdID, userID string) (*Member, error) {
	var member Member
	if err := b.get(membersBucket, "member", memberKey(householdID, userID), &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers returns the members of a household
func (b *BoltDB) ListMembers(ctx context.Context, householdID string) ([]*Member, error) {
	return scanBucket(b, membersBucket, func(m *Member) bool { return m.HouseholdID == householdID })
}

// ListMemberships returns the households a user belongs to
func (b *BoltDB) ListMemberships(ctx context.Context, userID string) ([]*Member, error) {
	return scanBucket(b, membersBucket, func(m *Member) bool { return m.UserID == userID })
}

// ListAllMembers returns every membership
func (b *BoltDB) ListAllMembers(ctx context.Context) ([]*Member, error) {
	return scanBucket[Member](b, membersBucket, nil)
}

// DeleteMember removes a user from a household
func (b *BoltDB) DeleteMember(ctx context.Context, householdID, userID string) error {
	return b.delete(membersBucket, "member", memberKey(householdID, userID))
}

// SaveProfile saves a profile, keyed by user
func (b *BoltDB) SaveProfile(ctx context.Context, profile *Profile) error {
	return b.put(profilesBucket, profile.UserID, profile)
}

// GetProfile retrieves a user's profile
func (b *BoltDB) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var profile Profile
	if err := b.get(profilesBucket, "profile", userID, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindProfileByEmail looks up a profile by case-insensitive email
func (b *BoltDB) FindProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	profiles, err := scanBucket(b, profilesBucket, func(p *Profile) bool {
		return strings.EqualFold(p.Email, email)
	})
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("profile %w: %s", ErrNotFound, email)
	}
	return profiles[0], nil
}

// SaveSettings saves a user's settings
func (b *BoltDB) SaveSettings(ctx context.Context, settings *Settings) error {
	return b.put(settingsBucket, settings.UserID, settings)
}

// GetSettings retrieves a user's settings
func (b *BoltDB) GetSettings(ctx context.Context, userID string) (*Settings, error) {
	var settings Settings
	if err := b.get(settingsBucket, "settings", userID, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveNotification saves a notification to the database
func (b *BoltDB) SaveNotification(ctx context.Context, n *Notification) error {
	return b.put(notificationsBucket, n.ID, n)
}

// GetNotification retrieves a notification by ID
func (b *BoltDB) GetNotification(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	if err := b.get(notificationsBucket, "notification", id, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotifications returns a user's notifications
func (b *BoltDB) ListNotifications(ctx context.Context, userID string) ([]*Notification, error) {
	return scanBucket(b, notificationsBucket, func(n *Notification) bool { return n.UserID == userID })
}

// DeleteNotification removes a notification
func (b *BoltDB) DeleteNotification(ctx context.Context, id string) error {
	return b.delete(notificationsBucket, "notification", id)
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
