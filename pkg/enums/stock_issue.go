package enums

// StockIssue classifies the result of a per-line stock check.
type StockIssue string

const (
	StockIssueNone         StockIssue = "valid"
	StockIssueInsufficient StockIssue = "insufficient_stock"
	StockIssueNotFound     StockIssue = "product_not_found"
)

// String implements fmt.Stringer.
func (s StockIssue) String() string {
	return string(s)
}
