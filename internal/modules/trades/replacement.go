package trades

// ReplacementSelector picks a wash-sale-safe substitute to buy when a
// security is sold at a loss. Implementations must never return the sold
// security itself.
type ReplacementSelector interface {
	// Replacement returns the substitute for a security, false when no
	// suitable substitute exists.
	Replacement(securityID string) (string, bool)
}

// TableSelector is a fixed-pair replacement selector.
type TableSelector struct {
	table map[string]string
}

// NewTableSelector creates a selector over the given pairs.
func NewTableSelector(table map[string]string) *TableSelector {
	copied := make(map[string]string, len(table))
	for k, v := range table {
		copied[k] = v
	}
	return &TableSelector{table: copied}
}

// Replacement returns the paired substitute, false when unmapped.
func (s *TableSelector) Replacement(securityID string) (string, bool) {
	sub, ok := s.table[securityID]
	return sub, ok
}

// DefaultReplacements pairs highly correlated, not substantially identical
// securities within the demo universe.
func DefaultReplacements() map[string]string {
	return map[string]string{
		"AAPL":  "MSFT",
		"MSFT":  "AAPL",
		"AMZN":  "GOOGL",
		"GOOGL": "AMZN",
		"JPM":   "BAC",
		"BAC":   "JPM",
	}
}
