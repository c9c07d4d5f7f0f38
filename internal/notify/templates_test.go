package notify

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/srikanthsri1729/homescan-ai/internal/inventory"
	"github.com/srikanthsri1729/homescan-ai/internal/scanning"
)

var _ = Describe("email templates", func() {
	DescribeTable("subject emoji",
		func(t inventory.NotificationType, emoji string) {
			Expect(emojiFor(t)).To(Equal(emoji))
		},
		Entry("low stock", inventory.NotificationLowStock, "⚠️"),
		Entry("expiry", inventory.NotificationExpiry, "⏰"),
		Entry("warranty", inventory.NotificationWarranty, "📋"),
		Entry("anything else", inventory.NotificationSystem, "🔔"),
	)

	It("renders a notification email", func() {
		email, err := notificationEmail("ada@example.com", "Ada", "https://homescan.example", inventory.NotificationEmail{
			Title:   "Low Stock: Milk",
			Message: "Only <1> left",
			Type:    inventory.NotificationLowStock,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(email.To).To(Equal([]string{"ada@example.com"}))
		Expect(email.Subject).To(Equal("⚠️ Low Stock: Milk"))
		Expect(email.HTML).To(ContainSubstring("Hi Ada,"))
		Expect(email.HTML).To(ContainSubstring("Only &lt;1&gt; left"))
		Expect(email.HTML).To(ContainSubstring(`href="https://homescan.example"`))
	})

	It("omits the app link when no URL is set", func() {
		email, err := notificationEmail("ada@example.com", "", "", inventory.NotificationEmail{Title: "t", Message: "m"})
		Expect(err).NotTo(HaveOccurred())
		Expect(email.HTML).To(ContainSubstring("Hi there,"))
		Expect(email.HTML).NotTo(ContainSubstring("View in App"))
	})

	It("renders the welcome email", func() {
		email, err := welcomeEmail("grace@example.com", "Grace")
		Expect(err).NotTo(HaveOccurred())
		Expect(email.Subject).To(Equal(welcomeSubject))
		Expect(email.HTML).To(ContainSubstring("Hi Grace,"))
	})
})

var _ = Describe("prompts", func() {
	DescribeTable("expiry titles",
		func(days int, title string) {
			Expect(expiryTitle(&inventory.Item{Name: "Milk"}, days)).To(Equal(title))
		},
		Entry("today", 0, "Milk Expires Today!"),
		Entry("tomorrow", 1, "Milk Expires in 1 Day"),
		Entry("later", 4, "Milk Expires in 4 Days"),
	)

	It("formats the expiry fallback date", func() {
		expiry := time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC)
		Expect(expiryFallback(&inventory.Item{Name: "Milk", ExpiryDate: &expiry})).
			To(Equal("Your Milk expires on Jun 18, 2024. Consider using it soon!"))
	})

	It("uses the item unit in low stock text", func() {
		item := &inventory.Item{Name: "Rice", Quantity: 0.5, Unit: "kg"}
		Expect(lowStockFallback(item)).To(Equal("Rice is running low with only 0.5 kg remaining. Consider restocking soon!"))
		Expect(lowStockPrompt([]*inventory.Item{item})).To(ContainSubstring("Rice (0.5 kg remaining)"))
	})

	It("lists at most twenty items in the suggestion prompt", func() {
		items := make([]*inventory.Item, 25)
		for i := range items {
			items[i] = &inventory.Item{Name: "Item", Category: scanning.CategoryOther, Quantity: 1}
		}
		items[19].Name = "Last"
		items[20].Name = "Dropped"

		prompt := suggestionPrompt(items)
		Expect(prompt).To(ContainSubstring("Last (other, qty: 1)"))
		Expect(prompt).NotTo(ContainSubstring("Dropped"))
	})
})
