package models

import "github.com/odyssey-erp/odyssey-ledger/internal/query"

// Column references used across the ledger queries.
var (
	EntityID   = query.Col("entity", "id")
	EntityName = query.Col("entity", "name")

	PersonID        = query.Col("person", "id")
	PersonFirstName = query.Col("person", "first_name")
	PersonLastName  = query.Col("person", "last_name")
	PersonEmail     = query.Col("person", "email")

	JunctionID       = query.Col("person_entity_junction", "id")
	JunctionPersonID = query.Col("person_entity_junction", "person_id")
	JunctionEntityID = query.Col("person_entity_junction", "entity_id")

	AccountID       = query.Col("account", "id")
	AccountEntityID = query.Col("account", "entity_id")
	AccountName     = query.Col("account", "name")
	AccountTypeCol  = query.Col("account", "type")
	AccountParentID = query.Col("account", "parent_account_id")

	JournalID          = query.Col("journal", "id")
	JournalEntityID    = query.Col("journal", "entity_id")
	JournalCreatedBy   = query.Col("journal", "created_by")
	JournalTimestamp   = query.Col("journal", "timestamp")
	JournalDescription = query.Col("journal", "description")
	JournalVendor      = query.Col("journal", "vendor")
	JournalValid       = query.Col("journal", "valid")

	LedgerID        = query.Col("ledger", "id")
	LedgerJournalID = query.Col("ledger", "journal_id")
	LedgerAccountID = query.Col("ledger", "account_id")
	LedgerAmount    = query.Col("ledger", "amount")
	LedgerDirection = query.Col("ledger", "direction")
)
