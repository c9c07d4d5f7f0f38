package notify

import (
	"fmt"
	"strings"

	"github.com/srikanthsri1729/homescan-ai/internal/inventory"
)

const suggestionItemLimit = 20

func unitOf(item *inventory.Item) string {
	if item.Unit == "" {
		return "pcs"
	}
	return item.Unit
}

func lowStockPrompt(items []*inventory.Item) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%s (%g %s remaining)", item.Name, item.Quantity, unitOf(item))
	}
	return fmt.Sprintf(`Generate a helpful, friendly notification message for a home inventory app. The user has the following items running low on stock: %s.
Write a concise, actionable message (max 100 words) that:
1. Lists the items that need restocking
2. Suggests they add these to their shopping list
3. Is warm and helpful in tone
Do not use markdown, just plain text.`, strings.Join(parts, ", "))
}

func lowStockFallback(item *inventory.Item) string {
	return fmt.Sprintf("%s is running low with only %g %s remaining. Consider restocking soon!", item.Name, item.Quantity, unitOf(item))
}

func expiryPrompt(item *inventory.Item, days int) string {
	return fmt.Sprintf(`Generate a brief, helpful notification about an expiring item for a home inventory app.
Item: %s
Days until expiry: %d
Category: %s

Write a concise message (max 50 words) that:
1. Mentions when it expires
2. Suggests what to do (use it soon, check if still good, etc.)
Be friendly and helpful. No markdown.`, item.Name, days, item.Category)
}

func expiryTitle(item *inventory.Item, days int) string {
	switch {
	case days == 0:
		return item.Name + " Expires Today!"
	case days == 1:
		return item.Name + " Expires in 1 Day"
	default:
		return fmt.Sprintf("%s Expires in %d Days", item.Name, days)
	}
}

func expiryFallback(item *inventory.Item) string {
	return fmt.Sprintf("Your %s expires on %s. Consider using it soon!", item.Name, item.ExpiryDate.Format("Jan 2, 2006"))
}

func suggestionPrompt(items []*inventory.Item) string {
	if len(items) > suggestionItemLimit {
		items = items[:suggestionItemLimit]
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%s (%s, qty: %g)", item.Name, item.Category, item.Quantity)
	}
	return fmt.Sprintf(`Based on this home inventory: %s

Generate ONE smart, actionable suggestion for the user. Examples:
- Suggest organizing items by location
- Recommend checking items that might need attention
- Tip for better inventory management

Keep it under 60 words, friendly and helpful. No markdown.`, strings.Join(parts, "; "))
}
