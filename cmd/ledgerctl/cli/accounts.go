package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/models"
)

func newTreeCommand(e *env) *cobra.Command {
	var entityRaw, master, accountType string
	var flat, leaves, ids bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the account hierarchy below a master account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := parseID("entity", entityRaw)
			if err != nil {
				return err
			}
			svc, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case accountType != "":
				items, err := svc.Engine.ListFromEntityAndType(cmd.Context(), entity, models.AccountType(strings.ToUpper(accountType)))
				if err != nil {
					return err
				}
				writeItems(out, items)
			case master == "":
				items, err := svc.Engine.ListFromEntity(cmd.Context(), entity)
				if err != nil {
					return err
				}
				writeItems(out, items)
			case flat || leaves:
				items, err := svc.Engine.ListFromMaster(cmd.Context(), master, entity, leaves)
				if err != nil {
					return err
				}
				writeItems(out, items)
			default:
				node, err := svc.Engine.TreeFromMaster(cmd.Context(), master, entity)
				if err != nil {
					return err
				}
				writeTree(out, node, ids)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&entityRaw, "entity", "", "entity id (required)")
	cmd.Flags().StringVar(&master, "master", "", "master account key, e.g. ASSET_SHORT (default: every account)")
	cmd.Flags().StringVar(&accountType, "type", "", "list every account of this type instead")
	cmd.Flags().BoolVar(&flat, "flat", false, "print a flat list")
	cmd.Flags().BoolVar(&leaves, "leaves-only", false, "list only accounts without children")
	cmd.Flags().BoolVar(&ids, "ids", false, "print account ids in the tree")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func newBalancesCommand(e *env) *cobra.Command {
	var entityRaw string
	var noCache bool
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Print the signed balance of every posted account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := parseID("entity", entityRaw)
			if err != nil {
				return err
			}
			svc, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			source := svc.Balances.AllAccountAmounts
			if noCache {
				source = svc.Engine.AllAccountAmounts
			}
			balances, err := source(cmd.Context(), entity)
			if err != nil {
				return err
			}
			items, err := svc.Engine.ListFromEntity(cmd.Context(), entity)
			if err != nil {
				return err
			}
			writeBalances(cmd.OutOrStdout(), balanceLines(balances, items))
			return nil
		},
	}
	cmd.Flags().StringVar(&entityRaw, "entity", "", "entity id (required)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "compute from the store, bypassing Redis")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}
