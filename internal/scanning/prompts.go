package scanning

import "fmt"

const unitList = "pcs|kg|g|L|ml|box|pack"

var receiptSystemPrompt = `You are an OCR and receipt parsing assistant. Analyze the receipt image and extract all purchased items.
Return a JSON object with the following structure:
{
  "items": [
    {
      "name": "Product name",
      "category": "` + categoryList + `",
      "quantity": 1,
      "unit": "` + unitList + `",
      "price": 0.00,
      "confidence": 95
    }
  ],
  "store": "Store name if visible",
  "date": "YYYY-MM-DD if visible"
}
Only return valid JSON, no other text.`

var barcodeSystemPrompt = `You are a product identification assistant. Analyze the barcode/product image and identify the product.
Return a JSON object with:
{
  "items": [
    {
      "name": "Product name",
      "category": "` + categoryList + `",
      "quantity": 1,
      "unit": "` + unitList + `",
      "confidence": 99
    }
  ]
}
Only return valid JSON, no other text.`

var photoSystemPrompt = `You are a household item identification assistant. Analyze the image and identify all visible objects/items.
Return a JSON object with the following structure:
{
  "items": [
    {
      "name": "Item name (be specific, e.g., 'Wooden Dining Chair' not just 'chair')",
      "category": "` + categoryList + `",
      "quantity": 1,
      "unit": "` + unitList + `",
      "confidence": 85
    }
  ]
}

Category guidelines:
- food: edible items (fruits, vegetables, snacks, etc.)
- beverages: drinks (water, juice, milk, etc.)
- kitchen: cooking items, appliances, utensils
- furniture: chairs, tables, sofas, beds, shelves
- electronics: phones, laptops, TVs, remotes, cables
- cleaning: cleaning products and tools
- personal: personal care items
- medicine: health and medical items
- clothing: clothes, shoes, accessories
- office: stationery, books
- documents: papers, receipts
- other: anything else

Be specific about product names when visible. Count quantities if multiple similar items are shown.
Only return valid JSON, no other text.`

var detailsSystemPrompt = `You are a product information assistant. Given an item name, provide detailed information about it.
Return a JSON object with:
{
  "name": "Cleaned/proper product name",
  "category": "` + categoryList + `",
  "unit": "` + unitList + `",
  "estimatedPrice": 0.00,
  "expiryDays": null or number (days until typical expiry, null if not applicable),
  "description": "Brief description of the item"
}
Choose the most appropriate category. For furniture/appliances, use longer expiry or null.
Only return valid JSON, no other text.`

// scanPrompt builds the instruction for an image scan. A non-empty barcode
// is passed to the model as a hint alongside the image.
func scanPrompt(mode Mode, barcode string) Prompt {
	switch mode {
	case ModeReceipt:
		return Prompt{System: receiptSystemPrompt, User: "Extract all items from this receipt image:"}
	case ModeBarcode:
		user := "Identify this product from the barcode/image:"
		if barcode != "" {
			user = fmt.Sprintf("Identify this product. The barcode reads %s:", barcode)
		}
		return Prompt{System: barcodeSystemPrompt, User: user}
	default:
		return Prompt{System: photoSystemPrompt, User: "Identify all objects and items in this image:"}
	}
}

// barcodeLookupPrompt asks for the product behind a decoded code, without an image.
func barcodeLookupPrompt(code string) Prompt {
	return Prompt{
		System: barcodeSystemPrompt,
		User:   fmt.Sprintf("Identify the product with barcode %s. If you do not recognize it, give your best guess from the code's prefix.", code),
	}
}

func detailsPrompt(itemName string) Prompt {
	return Prompt{System: detailsSystemPrompt, User: "Provide details for: " + itemName}
}
