package derive

import "strings"

// IsCustom reports whether an order looks like a custom build rather than a
// standard catalog item. Heuristic only; the upstream system has no
// authoritative flag.
func IsCustom(productName, productCode string) bool {
	if strings.HasPrefix(strings.ToLower(productName), "custom") {
		return true
	}
	code := strings.ToLower(productCode)
	return strings.Contains(code, "cust") ||
		strings.Contains(code, "cst") ||
		strings.Contains(code, "custom") ||
		strings.Contains(code, "_")
}
