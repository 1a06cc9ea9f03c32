package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grayfield/photodex/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show <order-number>",
	Short: "Show an order's metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orders := store.NewOrderStore(cfg.OrdersRoot)
		record, err := orders.Read(args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("order %s has no metadata yet (run a reindex)", args[0])
		}
		if errors.Is(err, store.ErrCorrupted) {
			return fmt.Errorf("order %s metadata is corrupted; an incremental reindex will rebuild it", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("Order %s\n", record.OrderNumber)
		if !record.OrderDate.IsZero() {
			fmt.Printf("  date:       %s\n", record.OrderDate.Format("2006-01-02"))
		}
		fmt.Printf("  customer:   %s\n", record.CustomerID)
		fmt.Printf("  product:    %s (%s)\n", record.ProductName, record.ProductCode)
		for _, opt := range record.Options {
			fmt.Printf("  option:     %s = %s\n", opt.Key, opt.Value)
		}
		if record.HasComments() {
			fmt.Printf("  comments:   %s\n", record.OrderComments)
		}
		fmt.Printf("  custom:     %v\n", record.IsCustom)
		fmt.Printf("  review:     %v\n", record.NeedsReview)
		fmt.Printf("  keywords:   %v\n", record.Keywords)
		if !record.LastIndexedUtc.IsZero() {
			fmt.Printf("  indexed:    %s\n", record.LastIndexedUtc.Format(time.RFC3339))
		}
		return nil
	},
}
