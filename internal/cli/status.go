package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grayfield/photodex/internal/models"
	"github.com/grayfield/photodex/internal/status"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show reindex run status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if statusWatch {
			return watchStatus(cfg.OrdersRoot)
		}

		st, err := status.NewReporter(cfg.OrdersRoot).Read()
		if err != nil {
			return fmt.Errorf("read status: %w", err)
		}
		printStatus(st)
		return nil
	},
}

func printStatus(st models.ReindexStatus) {
	if st.RunID == "" && !st.IsRunning && st.LastCompletedRun == nil {
		fmt.Println("No reindex run recorded yet.")
		return
	}

	if st.IsRunning {
		fmt.Printf("Run %s (%s) in progress: %d/%d orders\n",
			st.RunID, st.ReindexType, st.ProcessedOrders, st.TotalOrders)
		if st.CurrentOrder != nil {
			fmt.Printf("  current order: %s\n", *st.CurrentOrder)
		}
	} else {
		fmt.Printf("Last run %s (%s): %d/%d orders\n",
			st.RunID, st.ReindexType, st.ProcessedOrders, st.TotalOrders)
	}

	if st.StartTime != nil {
		fmt.Printf("  started:   %s\n", st.StartTime.Format(time.RFC3339))
	}
	if st.EndTime != nil {
		fmt.Printf("  ended:     %s\n", st.EndTime.Format(time.RFC3339))
	}
	if st.LastCompletedRun != nil {
		fmt.Printf("  completed: %s\n", st.LastCompletedRun.Format(time.RFC3339))
	}
	if st.Error != nil {
		fmt.Printf("  error:     %s\n", *st.Error)
	}
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "follow progress until the run completes")
}
