package database

const (
	SortHeightAsc = "height"
	SortNameNat   = "name"
)

const DefaultSortOrder = SortHeightAsc

// IsValidSortOrder checks if a string is a valid alias list sort order
func IsValidSortOrder(order string) bool {
	switch order {
	case SortHeightAsc, SortNameNat:
		return true
	default:
		return false
	}
}
