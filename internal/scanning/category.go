package scanning

import "strings"

// Category is an inventory classification tag.
type Category string

const (
	CategoryFood        Category = "food"
	CategoryBeverages   Category = "beverages"
	CategoryCleaning    Category = "cleaning"
	CategoryPersonal    Category = "personal"
	CategoryMedicine    Category = "medicine"
	CategoryElectronics Category = "electronics"
	CategoryDocuments   Category = "documents"
	CategoryKitchen     Category = "kitchen"
	CategoryFurniture   Category = "furniture"
	CategoryClothing    Category = "clothing"
	CategoryOffice      Category = "office"
	CategoryOther       Category = "other"
)

// Categories is the closed set of categories, in display order.
var Categories = []Category{
	CategoryFood,
	CategoryBeverages,
	CategoryCleaning,
	CategoryPersonal,
	CategoryMedicine,
	CategoryElectronics,
	CategoryDocuments,
	CategoryKitchen,
	CategoryFurniture,
	CategoryClothing,
	CategoryOffice,
	CategoryOther,
}

// categoryList is the pipe-separated enumeration embedded in prompts.
var categoryList = func() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, "|")
}()

// Valid reports whether c is one of Categories. Matching is exact.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Classify returns the category for the given item name using a
// case-insensitive substring match against the keyword table.
// The first matching keyword wins. Falls back to "other".
func Classify(itemName string) Category {
	name := strings.ToLower(itemName)
	if strings.TrimSpace(name) == "" {
		return CategoryOther
	}

	for _, rule := range keywordRules {
		if strings.Contains(name, rule.keyword) {
			return rule.category
		}
	}

	return CategoryOther
}

// NormalizeCategory returns category in canonical form when it is part of the
// enumeration, and the keyword classification of itemName otherwise.
// Normalizing an already valid category returns it unchanged.
func NormalizeCategory(category, itemName string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(category)))
	if c.Valid() {
		return c
	}
	return Classify(itemName)
}

type keywordRule struct {
	keyword  string
	category Category
}

// keywordRules is ordered: short keywords such as "pen" or "tie" also match
// inside longer words, so earlier entries take precedence.
var keywordRules = []keywordRule{
	// Food
	{"apple", CategoryFood},
	{"banana", CategoryFood},
	{"orange", CategoryFood},
	{"bread", CategoryFood},
	{"egg", CategoryFood},
	{"eggs", CategoryFood},
	{"milk", CategoryBeverages},
	{"yogurt", CategoryFood},
	{"cheese", CategoryFood},
	{"meat", CategoryFood},
	{"fish", CategoryFood},
	{"vegetable", CategoryFood},
	{"fruit", CategoryFood},
	{"cereal", CategoryFood},
	{"rice", CategoryFood},
	{"pasta", CategoryFood},
	{"kiwi", CategoryFood},
	{"tomato", CategoryFood},
	{"potato", CategoryFood},
	{"carrot", CategoryFood},
	{"onion", CategoryFood},

	// Beverages
	{"water", CategoryBeverages},
	{"juice", CategoryBeverages},
	{"soda", CategoryBeverages},
	{"coffee", CategoryBeverages},
	{"tea", CategoryBeverages},
	{"wine", CategoryBeverages},
	{"beer", CategoryBeverages},
	{"bottle", CategoryBeverages},

	// Furniture
	{"chair", CategoryFurniture},
	{"table", CategoryFurniture},
	{"sofa", CategoryFurniture},
	{"couch", CategoryFurniture},
	{"bed", CategoryFurniture},
	{"desk", CategoryFurniture},
	{"cabinet", CategoryFurniture},
	{"shelf", CategoryFurniture},
	{"bench", CategoryFurniture},
	{"diningtable", CategoryFurniture},
	{"wardrobe", CategoryFurniture},
	{"bookshelf", CategoryFurniture},

	// Electronics
	{"laptop", CategoryElectronics},
	{"computer", CategoryElectronics},
	{"phone", CategoryElectronics},
	{"tv", CategoryElectronics},
	{"television", CategoryElectronics},
	{"monitor", CategoryElectronics},
	{"keyboard", CategoryElectronics},
	{"mouse", CategoryElectronics},
	{"remote", CategoryElectronics},
	{"tablet", CategoryElectronics},
	{"camera", CategoryElectronics},
	{"speaker", CategoryElectronics},
	{"headphones", CategoryElectronics},
	{"charger", CategoryElectronics},
	{"cable", CategoryElectronics},

	// Kitchen
	{"pot", CategoryKitchen},
	{"pan", CategoryKitchen},
	{"knife", CategoryKitchen},
	{"fork", CategoryKitchen},
	{"spoon", CategoryKitchen},
	{"plate", CategoryKitchen},
	{"bowl", CategoryKitchen},
	{"cup", CategoryKitchen},
	{"glass", CategoryKitchen},
	{"mug", CategoryKitchen},
	{"oven", CategoryKitchen},
	{"microwave", CategoryKitchen},
	{"toaster", CategoryKitchen},
	{"blender", CategoryKitchen},
	{"refrigerator", CategoryKitchen},
	{"fridge", CategoryKitchen},
	{"kettle", CategoryKitchen},

	// Cleaning
	{"cleaner", CategoryCleaning},
	{"detergent", CategoryCleaning},
	{"soap", CategoryCleaning},
	{"brush", CategoryCleaning},
	{"mop", CategoryCleaning},
	{"broom", CategoryCleaning},
	{"vacuum", CategoryCleaning},
	{"sponge", CategoryCleaning},

	// Personal care
	{"shampoo", CategoryPersonal},
	{"toothbrush", CategoryPersonal},
	{"toothpaste", CategoryPersonal},
	{"razor", CategoryPersonal},
	{"lotion", CategoryPersonal},
	{"deodorant", CategoryPersonal},
	{"perfume", CategoryPersonal},

	// Medicine
	{"medicine", CategoryMedicine},
	{"pill", CategoryMedicine},
	{"vitamin", CategoryMedicine},
	{"aspirin", CategoryMedicine},
	{"bandage", CategoryMedicine},
	{"thermometer", CategoryMedicine},
	{"syringe", CategoryMedicine},

	// Clothing
	{"shirt", CategoryClothing},
	{"pants", CategoryClothing},
	{"dress", CategoryClothing},
	{"shoes", CategoryClothing},
	{"jacket", CategoryClothing},
	{"coat", CategoryClothing},
	{"hat", CategoryClothing},
	{"socks", CategoryClothing},
	{"tie", CategoryClothing},
	{"handbag", CategoryClothing},
	{"backpack", CategoryClothing},

	// Office
	{"pen", CategoryOffice},
	{"pencil", CategoryOffice},
	{"paper", CategoryOffice},
	{"notebook", CategoryOffice},
	{"stapler", CategoryOffice},
	{"scissors", CategoryOffice},
	{"tape", CategoryOffice},
	{"folder", CategoryOffice},
	{"book", CategoryOffice},
	{"clock", CategoryOffice},

	// Documents
	{"document", CategoryDocuments},
	{"receipt", CategoryDocuments},
	{"invoice", CategoryDocuments},
	{"contract", CategoryDocuments},
}
