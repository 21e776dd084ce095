package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/pasco/internal/attempts"
	"github.com/illarion/pasco/internal/core"
	"github.com/illarion/pasco/internal/storage"
)

// Attempts lists failed-attempt counters kept on this device
func Attempts(ctx context.Context) {
	s := LoadSessionOrExit()

	err := s.WithStore(func(store *storage.Storage, engine *core.Engine) error {
		deviceID, err := store.DeviceID()
		if err != nil {
			return err
		}
		created, err := store.Created()
		if err != nil {
			return err
		}
		fmt.Printf("Device: %s (since %s)\n", deviceID, created.Local().Format(time.RFC3339))
		fmt.Printf("Limit: %d failed attempts per token\n\n", engine.MaxAttempts())

		statuses, err := engine.ListAttempts(ctx)
		if err != nil {
			return err
		}

		if len(statuses) == 0 {
			fmt.Println("No failed attempts recorded")
			return nil
		}

		for _, st := range statuses {
			icon := " "
			if st.State() == attempts.Locked {
				icon = "!"
			}
			fmt.Printf("  %s %s  %d/%d  %-6s  last %s\n",
				icon,
				st.Fingerprint,
				st.Failures,
				st.MaxAttempts,
				st.State(),
				st.LastAttempt.Local().Format(time.RFC3339))
		}
		return nil
	})
	if err != nil {
		HandleError(err)
	}
}

// ResetAttempts clears the counter for one fingerprint
func ResetAttempts(ctx context.Context, fingerprint string) {
	s := LoadSessionOrExit()

	err := s.WithStore(func(_ *storage.Storage, engine *core.Engine) error {
		return engine.ResetAttempts(ctx, fingerprint)
	})
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("reset: %s\n", fingerprint)
}
