package utils

// Shipment and ticket listings default to one screen of rows; the cap keeps
// an admin listing the whole book from pulling unbounded result sets.
const (
	listPageDefault = 25
	listPageMax     = 200
)

// PageWindow resolves optional offset/limit query parameters into the
// window applied to a list query. Nil or out-of-range values fall back to
// the defaults and the limit is clamped to listPageMax.
func PageWindow(offset, limit *int) (int, int) {
	finalOffset := 0
	finalLimit := listPageDefault

	if offset != nil && *offset >= 0 {
		finalOffset = *offset
	}
	if limit != nil && *limit > 0 {
		finalLimit = min(*limit, listPageMax)
	}

	return finalOffset, finalLimit
}
