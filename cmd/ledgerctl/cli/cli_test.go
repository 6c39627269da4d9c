package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/ledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/models"
	"github.com/odyssey-erp/odyssey-ledger/jobs"
)

func TestParseLegs(t *testing.T) {
	legs, err := parseLegs([]string{"Snowy (E)=100", " WF Checking = 49.50 ", "A=B=1"}, models.Debit)
	require.NoError(t, err)
	require.Equal(t, "Snowy (E)", legs[0].account)
	require.True(t, decimal.NewFromInt(100).Equal(legs[0].amount))
	require.Equal(t, "WF Checking", legs[1].account)
	require.True(t, decimal.RequireFromString("49.5").Equal(legs[1].amount))
	require.Equal(t, "A=B", legs[2].account)
	require.Equal(t, models.Debit, legs[2].direction)

	_, err = parseLegs([]string{"Snowy"}, models.Credit)
	require.ErrorContains(t, err, "want ACCOUNT=AMOUNT")
	_, err = parseLegs([]string{"Snowy=lots"}, models.Credit)
	require.Error(t, err)
}

func TestLedgerLines(t *testing.T) {
	snowy, checking := uuid.New(), uuid.New()
	items := []ledger.Item{{Name: "Snowy (E)", ID: snowy}, {Name: "WF Checking", ID: checking}}
	lines, err := ledgerLines([]leg{
		{account: "Snowy (E)", amount: decimal.NewFromInt(100), direction: models.Debit},
		{account: "WF Checking", amount: decimal.NewFromInt(100), direction: models.Credit},
	}, items)
	require.NoError(t, err)
	require.Equal(t, snowy, lines[0].AccountID)
	require.Equal(t, models.Credit, lines[1].Direction)

	_, err = ledgerLines([]leg{{account: "Petty Cash"}}, items)
	require.ErrorContains(t, err, `"Petty Cash"`)
}

func TestParseDate(t *testing.T) {
	zero, err := parseDate("")
	require.NoError(t, err)
	require.True(t, zero.IsZero())

	d, err := parseDate("2025-01-04")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDate("04/01/2025")
	require.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "100,000.00", formatAmount(decimal.NewFromInt(100000)))
	require.Equal(t, "-5,100.00", formatAmount(decimal.NewFromInt(-5100)))
	require.Equal(t, "0.10", formatAmount(decimal.RequireFromString("0.1")))
}

func TestWriteTree(t *testing.T) {
	root := &ledger.Node{Name: "Short Term Assets (Master)", Children: []*ledger.Node{
		{Name: "Wells Fargo", Children: []*ledger.Node{{Name: "WF Checking"}}},
	}}
	var buf bytes.Buffer
	writeTree(&buf, root, false)
	require.Equal(t, "Short Term Assets (Master)\n  Wells Fargo\n    WF Checking\n", buf.String())
}

func TestBalances(t *testing.T) {
	checking, owners, stray := uuid.New(), uuid.New(), uuid.New()
	lines := balanceLines(ledger.Balances{
		checking: decimal.NewFromInt(49900),
		owners:   decimal.NewFromInt(100000),
		stray:    decimal.NewFromInt(1),
	}, []ledger.Item{{Name: "WF Checking", ID: checking}, {Name: "Tegan & Adriane", ID: owners}})

	require.Len(t, lines, 3)
	require.Equal(t, "Tegan & Adriane", lines[0].Name)
	require.Equal(t, "WF Checking", lines[1].Name)
	require.Equal(t, stray.String(), lines[2].Name)

	var buf bytes.Buffer
	writeBalances(&buf, lines[:2])
	require.Equal(t,
		"Tegan & Adriane       100,000.00\n"+
			"WF Checking            49,900.00\n",
		buf.String())
}

func TestTaskFor(t *testing.T) {
	entity := uuid.New()
	task, err := taskFor(jobs.TaskBalancesWarm, TriggerOptions{Entities: []uuid.UUID{entity}})
	require.NoError(t, err)
	var payload jobs.BalancesWarmPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, []uuid.UUID{entity}, payload.EntityIDs)

	task, err = taskFor(jobs.TaskOrphanScan, TriggerOptions{OlderThan: time.Hour})
	require.NoError(t, err)
	require.Equal(t, jobs.TaskOrphanScan, task.Type())

	_, err = taskFor("ledger:reindex", TriggerOptions{})
	require.ErrorContains(t, err, "unsupported job")
}

func TestCommandsRejectBadInput(t *testing.T) {
	cases := map[string][]string{
		"missing entity":  {"tree"},
		"malformed id":    {"balances", "--entity", "acme"},
		"unknown job":     {"jobs", "trigger", "ledger:reindex"},
		"missing legs":    {"post", "--entity", uuid.NewString(), "--user", uuid.NewString(), "--description", "x", "--debit", "Snowy"},
		"missing chart":   {"seed", "chart", "--entity-name", "Acme", "--file", "/nonexistent/chart.yaml"},
		"stray arguments": {"schema", "apply", "now"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			cmd := NewRootCommand()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(args)
			require.Error(t, cmd.Execute())
		})
	}
}
