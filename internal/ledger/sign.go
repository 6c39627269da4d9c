package ledger

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-ledger/internal/models"
)

// normalBalance maps each account type to the direction that increases it.
var normalBalance = map[models.AccountType]models.Direction{
	models.AccountAsset:    models.Debit,
	models.AccountExpense:  models.Debit,
	models.AccountDividend: models.Debit,

	models.AccountEquity:        models.Credit,
	models.AccountIncome:        models.Credit,
	models.AccountLiability:     models.Credit,
	models.AccountIncomeSummary: models.Credit,
}

// NormalBalance returns the direction that increases accounts of type t.
func NormalBalance(t models.AccountType) (models.Direction, error) {
	d, ok := normalBalance[t]
	if !ok {
		return "", fmt.Errorf("%w: unrecognized account type %q", ErrLogic, t)
	}
	return d, nil
}

// SignScalar returns +1 when dir increases an account of type t and -1 when
// it decreases it.
func SignScalar(t models.AccountType, dir models.Direction) (int, error) {
	normal, err := NormalBalance(t)
	if err != nil {
		return 0, err
	}
	if !dir.Valid() {
		return 0, fmt.Errorf("%w: unrecognized direction %q", ErrLogic, dir)
	}
	if dir == normal {
		return 1, nil
	}
	return -1, nil
}
