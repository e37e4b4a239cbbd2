package domain

// DefaultChart returns the chart of accounts a fresh ledger is seeded with.
// Codes follow the leading digit convention: 1 assets, 2 liabilities,
// 3 equity, 4 revenue, 5 cost of sales, 6 operating expenses.
func DefaultChart() []Account {
	return []Account{
		{Code: "1101", Name: "Cash and Banks", Type: AccountTypeAsset, Category: CategoryCurrent},
		{Code: "1201", Name: "Accounts Receivable", Type: AccountTypeAsset, Category: CategoryCurrent},
		{Code: "1301", Name: "Inventory", Type: AccountTypeAsset, Category: CategoryCurrent},
		{Code: "1401", Name: "VAT Credit", Type: AccountTypeAsset, Category: CategoryCurrent, Description: "Input tax recoverable"},
		{Code: "1501", Name: "Machinery and Equipment", Type: AccountTypeAsset, Category: CategoryFixed},
		{Code: "2101", Name: "Accounts Payable", Type: AccountTypeLiability, Category: CategoryCurrent},
		{Code: "2105", Name: "VAT Debit", Type: AccountTypeLiability, Category: CategoryCurrent, Description: "Output tax payable"},
		{Code: "2201", Name: "Long Term Loans", Type: AccountTypeLiability, Category: CategoryLongTerm},
		{Code: "3101", Name: "Share Capital", Type: AccountTypeEquity, Category: CategoryOther},
		{Code: "3201", Name: "Retained Earnings", Type: AccountTypeEquity, Category: CategoryOther},
		{Code: "4101", Name: "Sales", Type: AccountTypeRevenue, Category: CategoryOther},
		{Code: "4201", Name: "Inventory Gains", Type: AccountTypeRevenue, Category: CategoryOther},
		{Code: "5101", Name: "Cost of Sales", Type: AccountTypeExpense, Category: CategoryOther},
		{Code: "5102", Name: "Materials", Type: AccountTypeExpense, Category: CategoryOther},
		{Code: "5201", Name: "Inventory Losses", Type: AccountTypeExpense, Category: CategoryOther},
		{Code: "6101", Name: "Professional Services", Type: AccountTypeExpense, Category: CategoryOther},
		{Code: "6201", Name: "General Expenses", Type: AccountTypeExpense, Category: CategoryOther},
	}
}
