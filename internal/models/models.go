package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies an account under the double-entry rules.
type AccountType string

const (
	AccountAsset         AccountType = "ASSET"
	AccountLiability     AccountType = "LIABILITY"
	AccountEquity        AccountType = "EQUITY"
	AccountIncome        AccountType = "INCOME"
	AccountExpense       AccountType = "EXPENSE"
	AccountDividend      AccountType = "DIVIDEND"
	AccountIncomeSummary AccountType = "INCOME_SUMMARY"
)

// AccountTypes lists every account type in declaration order.
var AccountTypes = []AccountType{
	AccountAsset, AccountLiability, AccountEquity, AccountIncome,
	AccountExpense, AccountDividend, AccountIncomeSummary,
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Direction is the side of a ledger line.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// Valid reports whether d is DEBIT or CREDIT.
func (d Direction) Valid() bool { return d == Debit || d == Credit }

// Entity is a bookkeeping unit owning a chart of accounts.
type Entity struct {
	ID          uuid.UUID `db:"id,omitempty" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
}

func (Entity) TableName() string { return "entity" }

// Person is a user that may act on one or more entities.
type Person struct {
	ID             uuid.UUID `db:"id,omitempty" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	Level          int       `db:"level" json:"level"`
	Active         bool      `db:"active" json:"active"`
	HashedPassword string    `db:"hashed_password" json:"-"`
}

func (Person) TableName() string { return "person" }

// PersonEntityJunction grants a person access to an entity.
type PersonEntityJunction struct {
	ID       uuid.UUID `db:"id,omitempty" json:"id"`
	PersonID uuid.UUID `db:"person_id" json:"person_id"`
	EntityID uuid.UUID `db:"entity_id" json:"entity_id"`
}

func (PersonEntityJunction) TableName() string { return "person_entity_junction" }

// Account is a node of an entity's chart of accounts. Roots have no parent.
type Account struct {
	ID              uuid.UUID   `db:"id,omitempty" json:"id"`
	EntityID        uuid.UUID   `db:"entity_id" json:"entity_id"`
	Name            string      `db:"name" json:"name"`
	Type            AccountType `db:"type" json:"type"`
	ParentAccountID *uuid.UUID  `db:"parent_account_id" json:"parent_account_id,omitempty"`
}

func (Account) TableName() string { return "account" }

// Journal is the header of one posted transaction. It stays invalid until all
// of its ledger lines are written.
type Journal struct {
	ID          uuid.UUID `db:"id,omitempty" json:"id"`
	EntityID    uuid.UUID `db:"entity_id" json:"entity_id"`
	CreatedBy   uuid.UUID `db:"created_by" json:"created_by"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
	Description string    `db:"description" json:"description"`
	Vendor      *string   `db:"vendor" json:"vendor,omitempty"`
	Valid       bool      `db:"valid" json:"valid"`
}

func (Journal) TableName() string { return "journal" }

// LedgerLine is one debit or credit leg of a journal.
type LedgerLine struct {
	ID        uuid.UUID       `db:"id,omitempty" json:"id"`
	JournalID uuid.UUID       `db:"journal_id" json:"journal_id"`
	AccountID uuid.UUID       `db:"account_id" json:"account_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Direction Direction       `db:"direction" json:"direction"`
}

func (LedgerLine) TableName() string { return "ledger" }
