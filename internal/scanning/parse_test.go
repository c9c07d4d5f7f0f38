package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseScanResult", func() {
	var (
		input  string
		result *ScanResult
	)

	JustBeforeEach(func() {
		result = parseScanResult(input)
	})

	When("parsing a valid receipt reply", func() {
		BeforeEach(func() {
			input = `{"items":[{"name":"Whole Milk","category":"beverages","quantity":2,"unit":"L","price":3.49,"confidence":95}],"store":"Trader Joe's","date":"01/15/2024"}`
		})

		It("should parse the item", func() {
			Expect(result.Items).To(HaveLen(1))
			Expect(result.Items[0].Name).To(Equal("Whole Milk"))
			Expect(result.Items[0].Category).To(Equal(CategoryBeverages))
			Expect(result.Items[0].Quantity).To(Equal(2.0))
			Expect(result.Items[0].Unit).To(Equal("L"))
			Expect(*result.Items[0].Price).To(Equal(3.49))
		})

		It("should parse the store", func() {
			Expect(result.Store).To(Equal("Trader Joe's"))
		})

		It("should normalize the date", func() {
			Expect(result.Date).To(Equal("2024-01-15"))
		})
	})

	When("the reply is wrapped in a fenced block with prose", func() {
		BeforeEach(func() {
			input = "Here is what I found:\n```json\n{\"items\":[{\"name\":\"Eggs\",\"category\":\"food\",\"quantity\":12,\"unit\":\"pcs\",\"confidence\":90}]}\n```\nLet me know if you need more."
		})

		It("should parse the item", func() {
			Expect(result.Items).To(HaveLen(1))
			Expect(result.Items[0].Name).To(Equal("Eggs"))
		})
	})

	When("the reply is not JSON", func() {
		BeforeEach(func() {
			input = "I could not see any items in this picture."
		})

		It("should return an empty item list", func() {
			Expect(result.Items).NotTo(BeNil())
			Expect(result.Items).To(BeEmpty())
		})
	})

	When("the reply is empty", func() {
		BeforeEach(func() {
			input = ""
		})

		It("should return an empty item list", func() {
			Expect(result.Items).To(BeEmpty())
		})
	})

	When("the reply is a bare array", func() {
		BeforeEach(func() {
			input = `[{"name":"Stapler","category":"office"},{"name":"Paper Towels","category":"cleaning"}]`
		})

		It("should accept it as the item list", func() {
			Expect(result.Items).To(HaveLen(2))
			Expect(result.Items[1].Category).To(Equal(CategoryCleaning))
		})
	})

	When("categories are missing or invalid", func() {
		BeforeEach(func() {
			input = `{"items":[{"name":"Organic Eggs","category":"groceries"},{"name":"Mystery Box"},{"name":"Dish Soap","category":" CLEANING "}]}`
		})

		It("should classify by name", func() {
			Expect(result.Items[0].Category).To(Equal(CategoryFood))
			Expect(result.Items[1].Category).To(Equal(CategoryOther))
		})

		It("should canonicalize valid categories", func() {
			Expect(result.Items[2].Category).To(Equal(CategoryCleaning))
		})
	})

	When("numeric fields are quoted or missing", func() {
		BeforeEach(func() {
			input = `{"items":[{"name":"Rice","quantity":"2","price":"$4.50","confidence":"80"},{"name":"Pasta"}]}`
		})

		It("should read quoted numbers", func() {
			Expect(result.Items[0].Quantity).To(Equal(2.0))
			Expect(*result.Items[0].Price).To(Equal(4.5))
			Expect(result.Items[0].Confidence).To(Equal(80.0))
		})

		It("should apply defaults", func() {
			Expect(result.Items[1].Quantity).To(Equal(1.0))
			Expect(result.Items[1].Unit).To(Equal("pcs"))
			Expect(result.Items[1].Price).To(BeNil())
		})
	})

	When("values are out of range", func() {
		BeforeEach(func() {
			input = `{"items":[{"name":"Chair","confidence":140,"price":-3},{"name":"Desk","confidence":-5}]}`
		})

		It("should clamp them", func() {
			Expect(result.Items[0].Confidence).To(Equal(100.0))
			Expect(*result.Items[0].Price).To(Equal(0.0))
			Expect(result.Items[1].Confidence).To(Equal(0.0))
		})
	})

	When("items have no name", func() {
		BeforeEach(func() {
			input = `{"items":[{"name":"  ","category":"food"},{"name":"Bread"}]}`
		})

		It("should drop them", func() {
			Expect(result.Items).To(HaveLen(1))
			Expect(result.Items[0].Name).To(Equal("Bread"))
		})
	})

	When("the receipt date is unreadable", func() {
		BeforeEach(func() {
			input = `{"items":[],"date":"sometime last week"}`
		})

		It("should drop the date", func() {
			Expect(result.Date).To(BeEmpty())
		})
	})
})

var _ = Describe("parseItemDetails", func() {
	var (
		input   string
		details *ItemDetails
		ok      bool
	)

	JustBeforeEach(func() {
		details, ok = parseItemDetails(input, "greek yogurt")
	})

	When("the reply is valid", func() {
		BeforeEach(func() {
			input = "```json\n{\"name\":\"Greek Yogurt\",\"category\":\"food\",\"unit\":\"g\",\"estimatedPrice\":5.99,\"expiryDays\":14,\"description\":\"Strained yogurt\"}\n```"
		})

		It("should parse every field", func() {
			Expect(ok).To(BeTrue())
			Expect(details.Name).To(Equal("Greek Yogurt"))
			Expect(details.Category).To(Equal(CategoryFood))
			Expect(details.Unit).To(Equal("g"))
			Expect(details.EstimatedPrice).To(Equal(5.99))
			Expect(*details.ExpiryDays).To(Equal(14))
			Expect(details.Description).To(Equal("Strained yogurt"))
		})
	})

	When("expiryDays is null", func() {
		BeforeEach(func() {
			input = `{"name":"Sofa","category":"furniture","unit":"pcs","estimatedPrice":500,"expiryDays":null}`
		})

		It("should leave it unset", func() {
			Expect(ok).To(BeTrue())
			Expect(details.ExpiryDays).To(BeNil())
		})
	})

	When("the name is missing", func() {
		BeforeEach(func() {
			input = `{"category":"food"}`
		})

		It("should use the requested name", func() {
			Expect(ok).To(BeTrue())
			Expect(details.Name).To(Equal("greek yogurt"))
		})
	})

	When("the reply is not JSON", func() {
		BeforeEach(func() {
			input = "Sorry, I don't know that product."
		})

		It("should report failure", func() {
			Expect(ok).To(BeFalse())
		})
	})
})

var _ = Describe("defaultDetails", func() {
	It("should build the fallback record", func() {
		details := defaultDetails("Paper Towels")
		Expect(details.Name).To(Equal("Paper Towels"))
		Expect(details.Category).To(Equal(CategoryOffice))
		Expect(details.Unit).To(Equal("pcs"))
		Expect(details.EstimatedPrice).To(Equal(10.00))
		Expect(details.ExpiryDays).To(BeNil())
		Expect(details.Description).To(BeEmpty())
	})
})

var _ = Describe("barcodeFallback", func() {
	It("should name the item after the last six characters", func() {
		result := barcodeFallback("5012345678900")
		Expect(result.Items).To(HaveLen(1))
		Expect(result.Items[0].Name).To(Equal("Product 678900"))
		Expect(result.Items[0].Category).To(Equal(CategoryOther))
		Expect(result.Items[0].Quantity).To(Equal(1.0))
		Expect(result.Items[0].Confidence).To(Equal(95.0))
		Expect(result.Barcode).To(Equal("5012345678900"))
	})

	It("should keep short codes whole", func() {
		Expect(barcodeFallback("1234").Items[0].Name).To(Equal("Product 1234"))
	})
})
