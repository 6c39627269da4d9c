package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/ledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/models"
)

// leg is one NAME=AMOUNT flag value.
type leg struct {
	account   string
	amount    decimal.Decimal
	direction models.Direction
}

func parseLegs(raw []string, dir models.Direction) ([]leg, error) {
	out := make([]leg, 0, len(raw))
	for _, r := range raw {
		i := strings.LastIndex(r, "=")
		if i <= 0 {
			return nil, fmt.Errorf("%s %q: want ACCOUNT=AMOUNT", strings.ToLower(string(dir)), r)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(r[i+1:]))
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", strings.ToLower(string(dir)), r, err)
		}
		out = append(out, leg{account: strings.TrimSpace(r[:i]), amount: amount, direction: dir})
	}
	return out, nil
}

// ledgerLines resolves leg account names against items.
func ledgerLines(legs []leg, items []ledger.Item) ([]models.LedgerLine, error) {
	byName := make(map[string]uuid.UUID, len(items))
	for _, it := range items {
		byName[it.Name] = it.ID
	}
	lines := make([]models.LedgerLine, 0, len(legs))
	for _, l := range legs {
		id, ok := byName[l.account]
		if !ok {
			return nil, fmt.Errorf("unknown account %q", l.account)
		}
		lines = append(lines, models.LedgerLine{AccountID: id, Amount: l.amount, Direction: l.direction})
	}
	return lines, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date %q: want RFC3339 or YYYY-MM-DD", raw)
	}
	return t, nil
}

func newPostCommand(e *env) *cobra.Command {
	var entityRaw, userRaw, description, vendor, date string
	var debits, credits []string
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a balanced journal",
		Example: `  ledgerctl post --entity $ENTITY --user $USER --description "Change oil" \
    --debit "Snowy (E)=100" --credit "WF Checking=100"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := parseID("entity", entityRaw)
			if err != nil {
				return err
			}
			user, err := parseID("user", userRaw)
			if err != nil {
				return err
			}
			ts, err := parseDate(date)
			if err != nil {
				return err
			}
			dr, err := parseLegs(debits, models.Debit)
			if err != nil {
				return err
			}
			cr, err := parseLegs(credits, models.Credit)
			if err != nil {
				return err
			}

			svc, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			items, err := svc.Engine.ListFromEntity(cmd.Context(), entity)
			if err != nil {
				return err
			}
			lines, err := ledgerLines(append(dr, cr...), items)
			if err != nil {
				return err
			}

			journal := models.Journal{EntityID: entity, CreatedBy: user, Timestamp: ts, Description: description}
			if vendor != "" {
				journal.Vendor = &vendor
			}
			id, err := svc.Engine.AddTransaction(cmd.Context(), journal, lines)
			if err != nil {
				return err
			}
			if err := svc.Balances.Invalidate(cmd.Context(), entity); err != nil {
				e.logger.Warn("invalidate balances", slog.Any("error", err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&entityRaw, "entity", "", "entity id (required)")
	cmd.Flags().StringVar(&userRaw, "user", "", "posting user id (required)")
	cmd.Flags().StringVar(&description, "description", "", "journal description (required)")
	cmd.Flags().StringVar(&vendor, "vendor", "", "vendor name")
	cmd.Flags().StringVar(&date, "date", "", "journal date, RFC3339 or YYYY-MM-DD (default now)")
	cmd.Flags().StringArrayVar(&debits, "debit", nil, "ACCOUNT=AMOUNT debit leg, repeatable")
	cmd.Flags().StringArrayVar(&credits, "credit", nil, "ACCOUNT=AMOUNT credit leg, repeatable")
	for _, f := range []string{"entity", "user", "description"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
