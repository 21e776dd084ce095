package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/pasco/internal/core"
	"github.com/illarion/pasco/internal/storage"
)

// Compact compacts the attempt database to reclaim unused space
func Compact() {
	s := LoadSessionOrExit()

	err := s.WithStore(func(store *storage.Storage, _ *core.Engine) error {
		path := store.Path()

		// Get file size before
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		sizeBefore := info.Size()

		if err := store.Compact(); err != nil {
			return err
		}

		// Get file size after
		info, err = os.Stat(path)
		if err != nil {
			return err
		}
		sizeAfter := info.Size()

		fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
		return nil
	})
	if err != nil {
		HandleError(err)
	}
}
