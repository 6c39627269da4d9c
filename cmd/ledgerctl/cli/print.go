package cli

import (
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/odyssey-erp/odyssey-ledger/internal/ledger"
)

var printer = message.NewPrinter(language.English)

// formatAmount renders d with grouping and two decimals.
func formatAmount(d decimal.Decimal) string {
	return printer.Sprintf("%v", number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// writeTree prints node and its descendants, one per line, indented by depth.
func writeTree(w io.Writer, node *ledger.Node, withIDs bool) {
	var walk func(n *ledger.Node, depth int)
	walk = func(n *ledger.Node, depth int) {
		line := strings.Repeat("  ", depth) + n.Name
		if withIDs {
			line += "  " + n.ID.String()
		}
		printer.Fprintln(w, line)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(node, 0)
}

// writeItems prints a flat account list.
func writeItems(w io.Writer, items []ledger.Item) {
	for _, it := range items {
		printer.Fprintf(w, "%s\t%s\n", it.ID, it.Name)
	}
}

// balanceLine is one printed balance.
type balanceLine struct {
	Name   string
	Amount decimal.Decimal
}

// balanceLines names every balance using items, in name order. Accounts
// without postings are left out; balances for unknown accounts keep their id.
func balanceLines(balances ledger.Balances, items []ledger.Item) []balanceLine {
	names := make(map[string]string, len(items))
	for _, it := range items {
		names[it.ID.String()] = it.Name
	}
	out := make([]balanceLine, 0, len(balances))
	for id, amount := range balances {
		name, ok := names[id.String()]
		if !ok {
			name = id.String()
		}
		out = append(out, balanceLine{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// writeBalances prints balances right-aligned after the account name.
func writeBalances(w io.Writer, lines []balanceLine) {
	width := 0
	for _, l := range lines {
		if len(l.Name) > width {
			width = len(l.Name)
		}
	}
	for _, l := range lines {
		pad := strings.Repeat(" ", width-len(l.Name))
		printer.Fprintf(w, "%s%s  %15s\n", l.Name, pad, formatAmount(l.Amount))
	}
}
