package inventory

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/srikanthsri1729/homescan-ai/internal/scanning"
)

const (
	expiryWindowDays   = 7
	spendMonths        = 6
	recentTransactions = 10
)

// DaysUntil returns the whole days from now until t, rounded up
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

// IsExpiringSoon reports whether the item expires within the next week.
// Items already past their expiry date are not counted.
func IsExpiringSoon(item *Item, now time.Time) bool {
	if item.ExpiryDate == nil {
		return false
	}
	days := DaysUntil(*item.ExpiryDate, now)
	return days >= 0 && days <= expiryWindowDays
}

// Analytics summarizes a household's inventory
func (s *Service) Analytics(ctx context.Context, householdID string) (*Analytics, error) {
	items, err := s.db.ListItems(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	txs, err := s.ListTransactions(ctx, householdID, math.MaxInt)
	if err != nil {
		return nil, err
	}

	now := s.timeSource.Now()
	out := &Analytics{
		TotalItems:         len(items),
		Categories:         make([]CategoryCount, 0),
		RecentTransactions: make([]RecentTransaction, 0, recentTransactions),
	}

	byID := make(map[string]*Item, len(items))
	byCategory := make(map[scanning.Category]*CategoryCount)
	for _, item := range items {
		byID[item.ID] = item

		value := 0.0
		if item.Price != nil {
			value = *item.Price * item.Quantity
		}
		out.TotalValue += value
		if item.IsLowStock() {
			out.LowStockCount++
		}
		if IsExpiringSoon(item, now) {
			out.ExpiringCount++
		}

		cc, ok := byCategory[item.Category]
		if !ok {
			cc = &CategoryCount{Category: item.Category}
			byCategory[item.Category] = cc
		}
		cc.Count++
		cc.Value += value
	}

	for _, cc := range byCategory {
		out.Categories = append(out.Categories, *cc)
	}
	slices.SortFunc(out.Categories, func(a, b CategoryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})

	out.MonthlySpend = monthlySpend(txs, byID, now)

	for _, t := range txs {
		if len(out.RecentTransactions) == recentTransactions {
			break
		}
		rt := RecentTransaction{Transaction: *t}
		if item, ok := byID[t.ItemID]; ok {
			rt.ItemName = item.Name
		}
		out.RecentTransactions = append(out.RecentTransactions, rt)
	}

	return out, nil
}

// monthlySpend totals purchase transactions per month for the last six
// months, oldest first. Value uses the item's current unit price.
func monthlySpend(txs []*Transaction, items map[string]*Item, now time.Time) []MonthlySpend {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(spendMonths - 1), 0)

	months := make([]MonthlySpend, spendMonths)
	index := make(map[string]int, spendMonths)
	for i := range months {
		key := first.AddDate(0, i, 0).Format("2006-01")
		months[i].Month = key
		index[key] = i
	}

	for _, t := range txs {
		if t.Type != TransactionPurchase {
			continue
		}
		i, ok := index[t.CreatedAt.In(now.Location()).Format("2006-01")]
		if !ok {
			continue
		}
		months[i].Quantity += t.Delta
		if item, ok := items[t.ItemID]; ok && item.Price != nil {
			months[i].Value += t.Delta * *item.Price
		}
	}
	return months
}
