package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/srikanthsri1729/homescan-ai/internal/realtime"
	"github.com/srikanthsri1729/homescan-ai/internal/scanning"
)

const (
	defaultUnit              = "pcs"
	defaultLowStockThreshold = 1
	defaultTransactionLimit  = 100
)

// IDGenerator generates unique record IDs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles inventory operations
type Service struct {
	db          DB
	storage     Storage
	publisher   Publisher
	notifier    Notifier
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with UUID ids and the wall clock.
// publisher and notifier may be nil.
func NewService(db DB, storage Storage, publisher Publisher, notifier Notifier) *Service {
	return NewServiceWithDeps(db, storage, publisher, notifier, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, publisher Publisher, notifier Notifier, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		publisher:   publisher,
		notifier:    notifier,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

func (s *Service) publish(householdID, entity, action, id string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Broadcast(realtime.NewMessage(householdID, entity, action, id))
}

func (s *Service) recordTransaction(ctx context.Context, item *Item, userID string, txType TransactionType, delta float64, notes string) error {
	t := &Transaction{
		ID:          s.idGenerator.Generate(),
		HouseholdID: item.HouseholdID,
		ItemID:      item.ID,
		Delta:       delta,
		Type:        txType,
		Notes:       notes,
		CreatedBy:   userID,
		CreatedAt:   s.timeSource.Now(),
	}
	if err := s.db.SaveTransaction(ctx, t); err != nil {
		return fmt.Errorf("saving %s transaction: %w", txType, err)
	}
	return nil
}

// CreateItem adds an item to a household and records the purchase
func (s *Service) CreateItem(ctx context.Context, householdID, userID string, in ItemInput) (*Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrInvalidInput)
	}
	if householdID == "" {
		return nil, fmt.Errorf("%w: household is required", ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
	}

	now := s.timeSource.Now()
	item := &Item{
		ID:                s.idGenerator.Generate(),
		HouseholdID:       householdID,
		Name:              name,
		Category:          scanning.NormalizeCategory(in.Category, name),
		Quantity:          in.Quantity,
		Unit:              strings.TrimSpace(in.Unit),
		Location:          strings.TrimSpace(in.Location),
		PurchaseDate:      in.PurchaseDate,
		ExpiryDate:        in.ExpiryDate,
		Price:             in.Price,
		Barcode:           strings.TrimSpace(in.Barcode),
		Notes:             in.Notes,
		LowStockThreshold: defaultLowStockThreshold,
		CreatedBy:         userID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if item.Unit == "" {
		item.Unit = defaultUnit
	}
	if in.LowStockThreshold != nil {
		item.LowStockThreshold = *in.LowStockThreshold
	}

	if err := s.db.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("saving item: %w", err)
	}
	if err := s.recordTransaction(ctx, item, userID, TransactionPurchase, item.Quantity, ""); err != nil {
		return nil, err
	}

	s.publish(householdID, "item", "created", item.ID)
	return item, nil
}

// GetItem retrieves an item by ID
func (s *Service) GetItem(ctx context.Context, id string) (*Item, error) {
	item, err := s.db.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns a household's items, newest first
func (s *Service) ListItems(ctx context.Context, householdID string) ([]*Item, error) {
	items, err := s.db.ListItems(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	slices.SortStableFunc(items, func(a, b *Item) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return items, nil
}

// UpdateItem applies a partial update to an item
func (s *Service) UpdateItem(ctx context.Context, id string, patch ItemPatch) (*Item, error) {
	item, err := s.db.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: item name is required", ErrInvalidInput)
		}
		item.Name = name
	}
	if patch.Category != nil {
		item.Category = scanning.NormalizeCategory(*patch.Category, item.Name)
	}
	if patch.Unit != nil && strings.TrimSpace(*patch.Unit) != "" {
		item.Unit = strings.TrimSpace(*patch.Unit)
	}
	if patch.Location != nil {
		item.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.PurchaseDate != nil {
		item.PurchaseDate = patch.PurchaseDate
	}
	if patch.ExpiryDate != nil {
		item.ExpiryDate = patch.ExpiryDate
	}
	if patch.Price != nil {
		item.Price = patch.Price
	}
	if patch.Barcode != nil {
		item.Barcode = strings.TrimSpace(*patch.Barcode)
	}
	if patch.Notes != nil {
		item.Notes = *patch.Notes
	}
	if patch.LowStockThreshold != nil {
		item.LowStockThreshold = *patch.LowStockThreshold
	}
	item.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("saving item: %w", err)
	}

	s.publish(item.HouseholdID, "item", "updated", item.ID)
	return item, nil
}

// DeleteItem removes an item, its history and its image
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	item, err := s.db.GetItem(ctx, id)
	if err != nil {
		return fmt.Errorf("getting item for deletion: %w", err)
	}

	if item.ImageURL != "" && s.storage != nil {
		if err := s.storage.Delete(ctx, imageKey(item.ID)); err != nil {
			slog.Warn("Failed to delete item image", "item_id", id, "error", err)
		}
	}

	if err := s.db.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("deleting item from database: %w", err)
	}

	s.publish(item.HouseholdID, "item", "deleted", id)
	return nil
}

// ConsumeItem decrements the quantity, never below zero. The transaction
// records the requested amount.
func (s *Service) ConsumeItem(ctx context.Context, id, userID string, amount float64) (*Item, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return s.changeQuantity(ctx, id, userID, TransactionUse, "", func(item *Item) (float64, float64) {
		return math.Max(0, item.Quantity-amount), -amount
	})
}

// AdjustItem sets the quantity to an absolute value
func (s *Service) AdjustItem(ctx context.Context, id, userID string, quantity float64, notes string) (*Item, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
	}
	return s.changeQuantity(ctx, id, userID, TransactionAdjust, notes, func(item *Item) (float64, float64) {
		return quantity, quantity - item.Quantity
	})
}

// ExpireItem writes off the remaining quantity
func (s *Service) ExpireItem(ctx context.Context, id, userID string) (*Item, error) {
	return s.changeQuantity(ctx, id, userID, TransactionExpire, "", func(item *Item) (float64, float64) {
		return 0, -item.Quantity
	})
}

// changeQuantity applies next to an item and records the returned delta.
// No transaction is written for a zero delta.
func (s *Service) changeQuantity(ctx context.Context, id, userID string, txType TransactionType, notes string, next func(*Item) (quantity, delta float64)) (*Item, error) {
	item, err := s.db.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	quantity, delta := next(item)
	item.Quantity = quantity
	item.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("saving item: %w", err)
	}
	if delta != 0 {
		if err := s.recordTransaction(ctx, item, userID, txType, delta, notes); err != nil {
			return nil, err
		}
	}

	s.publish(item.HouseholdID, "item", "updated", item.ID)
	return item, nil
}

// AddDetectedItems creates one item per detected item, in order. Failures are
// reported per item and do not stop the batch; nothing is rolled back.
func (s *Service) AddDetectedItems(ctx context.Context, householdID, userID string, detected []scanning.DetectedItem) *BatchResult {
	result := &BatchResult{
		Added:  make([]*Item, 0, len(detected)),
		Failed: make([]BatchFailure, 0),
	}

	for i, d := range detected {
		in := ItemInput{
			Name:     d.Name,
			Category: string(d.Category),
			Quantity: d.Quantity,
			Unit:     d.Unit,
			Price:    d.Price,
			Barcode:  d.Barcode,
		}
		if in.Quantity <= 0 {
			in.Quantity = 1
		}

		item, err := s.CreateItem(ctx, householdID, userID, in)
		if err != nil {
			slog.Warn("Failed to add detected item", "index", i, "name", d.Name, "error", err)
			result.Failed = append(result.Failed, BatchFailure{Index: i, Name: d.Name, Error: err.Error()})
			continue
		}
		result.Added = append(result.Added, item)
	}

	slog.Info("Added detected items", "household_id", householdID, "added", len(result.Added), "failed", len(result.Failed))
	return result
}

// ListTransactions returns up to limit transactions, newest first.
// A non-positive limit uses the default of 100.
func (s *Service) ListTransactions(ctx context.Context, householdID string, limit int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = defaultTransactionLimit
	}

	txs, err := s.db.ListTransactions(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	slices.SortStableFunc(txs, func(a, b *Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func imageKey(itemID string) string {
	return "item_" + itemID
}

// SaveItemImage stores a photo for an item
func (s *Service) SaveItemImage(ctx context.Context, id string, data []byte, contentType string) (*Item, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}

	item, err := s.db.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	if _, err := s.storage.Save(ctx, imageKey(id), data, contentType); err != nil {
		return nil, fmt.Errorf("saving image: %w", err)
	}

	item.ImageURL = fmt.Sprintf("/api/items/%s/image", id)
	item.ImageContentType = contentType
	item.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("saving item: %w", err)
	}

	s.publish(item.HouseholdID, "item", "updated", item.ID)
	return item, nil
}

// GetItemImage returns an item's photo and its content type
func (s *Service) GetItemImage(ctx context.Context, id string) ([]byte, string, error) {
	item, err := s.db.GetItem(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("getting item: %w", err)
	}
	if item.ImageURL == "" {
		return nil, "", fmt.Errorf("image %w: %s", ErrNotFound, id)
	}

	data, err := s.storage.Get(ctx, imageKey(id))
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return data, item.ImageContentType, nil
}
