package cli

import (
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/spf13/cobra"

	"github.com/grayfield/photodex/internal/models"
	"github.com/grayfield/photodex/internal/trigger"
)

var (
	reindexIncremental bool
	reindexReason      string
	reindexWait        bool
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Request a reindex run",
	Long: `Drops a trigger file under the orders root. The worker picks it up
on its next poll tick (about a second) and deletes it when the run
completes. A full run refreshes every order; an incremental run only
processes orders with missing or unreadable metadata.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := models.ReindexFull
		if reindexIncremental {
			mode = models.ReindexIncremental
		}

		payload := &trigger.Payload{
			RequestedBy: currentUser(),
			RequestedAt: time.Now().UTC(),
			Reason:      reindexReason,
		}
		if err := trigger.Write(cfg.OrdersRoot, mode, payload); err != nil {
			return fmt.Errorf("write trigger: %w", err)
		}

		fmt.Printf("Requested %s reindex.\n", mode)
		if !reindexWait {
			fmt.Println("Use 'photodex status --watch' to follow progress.")
			return nil
		}
		return watchStatus(cfg.OrdersRoot)
	},
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

func init() {
	reindexCmd.Flags().BoolVarP(&reindexIncremental, "incremental", "i", false, "only process new and corrupted orders")
	reindexCmd.Flags().StringVar(&reindexReason, "reason", "", "free-text reason recorded in the trigger file")
	reindexCmd.Flags().BoolVarP(&reindexWait, "wait", "w", false, "follow run progress until completion")
}
