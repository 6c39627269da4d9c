package ledger

import "github.com/odyssey-erp/odyssey-ledger/internal/models"

// MasterAccount describes one top-level account every entity carries.
type MasterAccount struct {
	Name string
	Type models.AccountType
}

// DefaultMasterAccounts maps category keys to the canonical master accounts.
var DefaultMasterAccounts = map[string]MasterAccount{
	"ASSET_LONG":        {Name: "Long Term Assets (Master)", Type: models.AccountAsset},
	"ASSET_SHORT":       {Name: "Short Term Assets (Master)", Type: models.AccountAsset},
	"ASSET_OWED":        {Name: "Owed Assets (Master)", Type: models.AccountAsset},
	"EXPENSE_OPERATING": {Name: "Operating Expenses (Master)", Type: models.AccountExpense},
	"EXPENSE_COGR":      {Name: "COGR Expenses (Master)", Type: models.AccountExpense},
	"EQUITY":            {Name: "Equity (Master)", Type: models.AccountEquity},
	"INCOME":            {Name: "Income (Master)", Type: models.AccountIncome},
	"LIABILITY_LONG":    {Name: "Long Term Liabilities (Master)", Type: models.AccountLiability},
	"LIABILITY_SHORT":   {Name: "Short Term Liabilities (Master)", Type: models.AccountLiability},
	"DIVIDENDS":         {Name: "Dividends (Master)", Type: models.AccountDividend},
}
