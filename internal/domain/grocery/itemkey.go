package grocery

import (
	"strings"

	"github.com/google/uuid"
)

// itemKeyPrefix namespaces grocery item keys. The key must stay identical
// across regenerations of the same plan so persisted checked flags keep
// matching; deriving it from the food identity alone guarantees that.
const itemKeyPrefix = "food_id:"

// ItemKey returns the stable key for a grocery list item.
func ItemKey(foodID uuid.UUID) string {
	return itemKeyPrefix + foodID.String()
}

// ParseItemKey extracts the food identity from an item key.
func ParseItemKey(key string) (uuid.UUID, bool) {
	raw, ok := strings.CutPrefix(key, itemKeyPrefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
