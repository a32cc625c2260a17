package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/pricing"
	"github.com/travatlanta/Sticky-sub003/internal/service"
)

var (
	adjustType     string
	adjustValue    string
	adjustCategory int64
	adjustApply    bool
)

var bulkAdjustCmd = &cobra.Command{
	Use:   "bulk-adjust",
	Short: "Re-price every product (or one category) by a percentage or flat amount",
	Long: `Re-price products in one transaction. Without --apply the command only
prints the resulting prices.

  storefront bulk-adjust --type percentage --value 10 --category 3
  storefront bulk-adjust --type flat --value -0.25 --apply`,
	RunE: runBulkAdjust,
}

func init() {
	rootCmd.AddCommand(bulkAdjustCmd)

	bulkAdjustCmd.Flags().StringVar(&adjustType, "type", "", "adjustment type: percentage or flat")
	bulkAdjustCmd.Flags().StringVar(&adjustValue, "value", "", "percentage points or currency amount, may be negative")
	bulkAdjustCmd.Flags().Int64Var(&adjustCategory, "category", 0, "restrict to one category id")
	bulkAdjustCmd.Flags().BoolVar(&adjustApply, "apply", false, "write the new prices instead of previewing")
	_ = bulkAdjustCmd.MarkFlagRequired("type")
	_ = bulkAdjustCmd.MarkFlagRequired("value")
}

func runBulkAdjust(cmd *cobra.Command, args []string) error {
	t, err := pricing.ParseAdjustmentType(adjustType)
	if err != nil {
		return err
	}
	value, err := decimal.NewFromString(adjustValue)
	if err != nil {
		return fmt.Errorf("invalid --value %q: %w", adjustValue, err)
	}
	req := service.BulkAdjustRequest{Type: t, Value: value, Preview: !adjustApply}
	if adjustCategory > 0 {
		req.CategoryID = &adjustCategory
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := openRepository(cfg, log)
	if err != nil {
		return err
	}
	defer repo.Close()

	catalog := service.NewCatalogService(repo, service.NewActivityRecorder(repo))
	operator := domain.Actor{UserID: "cli", Name: "operator", Role: domain.RoleAdmin}

	ctx := log.WithContext(context.Background())
	changes, err := catalog.BulkAdjust(ctx, operator, req)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tOLD\tNEW")
	for _, c := range changes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ProductID, c.Name, c.OldPrice.StringFixed(2), c.NewPrice.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if req.Preview {
		fmt.Printf("\n%d products previewed, run again with --apply to save\n", len(changes))
	} else {
		fmt.Printf("\n%d products updated\n", len(changes))
	}
	return nil
}
