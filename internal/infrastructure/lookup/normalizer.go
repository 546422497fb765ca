package lookup

import "github.com/productscan/backend/internal/domain"

// shapeMatcher recognizes one layout of the lookup service response and
// returns the node holding the product data
type shapeMatcher struct {
	name  string
	match func(root Node) (Node, bool)
}

// shapeMatchers are tried in order; the first structural match wins
var shapeMatchers = []shapeMatcher{
	{name: "products", match: matchFirstOf("products")},
	{name: "product", match: matchObjectAt("product")},
	{name: "item", match: matchObjectAt("item")},
	{name: "items", match: matchCountedItems},
	{name: "top-level", match: matchTopLevel},
}

// Field candidate keys, in priority order
var (
	nameKeys         = []string{"title", "name", "product_name", "productName"}
	manufacturerKeys = []string{"manufacturer", "brand", "brand_name", "company"}
	categoryKeys     = []string{"category", "category_name", "categoryName", "type"}
	descriptionKeys  = []string{"description", "desc", "summary"}

	// nestedNameKeys are looked up when a field value is itself an object,
	// e.g. "manufacturer": {"name": "Acme"}
	nestedNameKeys = []string{"name", "title", "value"}

	hitCountKeys = []string{"hits", "total", "count"}
)

// Normalize locates the product inside a lookup response and extracts a
// fully populated record. It reports false when no known shape matches.
func Normalize(root Node) (*domain.ProductRecord, bool) {
	node, _, ok := LocateProduct(root)
	if !ok {
		return nil, false
	}
	return recordFrom(node), true
}

// recordFrom extracts every field of a located product node
func recordFrom(node Node) *domain.ProductRecord {
	return &domain.ProductRecord{
		Name:         extractField(node, nameKeys),
		Manufacturer: extractField(node, manufacturerKeys),
		Category:     extractField(node, categoryKeys),
		Description:  extractField(node, descriptionKeys),
	}
}

// LocateProduct returns the product node and the name of the shape that matched
func LocateProduct(root Node) (Node, string, bool) {
	for _, m := range shapeMatchers {
		if node, ok := m.match(root); ok {
			return node, m.name, true
		}
	}
	return Node{}, "", false
}

func matchObjectAt(key string) func(Node) (Node, bool) {
	return func(root Node) (Node, bool) {
		node := root.Get(key)
		return node, node.Kind() == KindObject
	}
}

func matchFirstOf(key string) func(Node) (Node, bool) {
	return func(root Node) (Node, bool) {
		first := root.Get(key).Index(0)
		return first, first.Kind() == KindObject
	}
}

// matchCountedItems accepts {"hits": n, "items": [...]} only when n > 0
func matchCountedItems(root Node) (Node, bool) {
	if !positiveHitCount(root) {
		return Node{}, false
	}
	return matchFirstOf("items")(root)
}

func positiveHitCount(root Node) bool {
	for _, key := range hitCountKeys {
		if n, ok := root.Get(key).Number(); ok {
			return n > 0
		}
	}
	return false
}

// matchTopLevel treats the root as the product when it carries a usable name
func matchTopLevel(root Node) (Node, bool) {
	if root.Kind() != KindObject {
		return Node{}, false
	}
	_, ok := firstValue(root, nameKeys)
	return root, ok
}

// extractField returns the first usable candidate value or the unknown sentinel
func extractField(node Node, candidates []string) string {
	if v, ok := firstValue(node, candidates); ok {
		return v
	}
	return domain.UnknownValue
}

func firstValue(node Node, candidates []string) (string, bool) {
	for _, key := range candidates {
		if v, ok := fieldValue(node.Get(key)); ok {
			return v, true
		}
	}
	return "", false
}

// fieldValue branches on the runtime shape: scalars are used directly,
// objects are searched for their own name-like key, anything else is unusable
func fieldValue(v Node) (string, bool) {
	switch v.Kind() {
	case KindScalar:
		return v.Text()
	case KindObject:
		for _, key := range nestedNameKeys {
			if s, ok := v.Get(key).Text(); ok {
				return s, true
			}
		}
	}
	return "", false
}
