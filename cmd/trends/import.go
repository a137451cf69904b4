package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
	"github.com/couchcryptid/trends-etl-service/internal/snapshot"
)

func newImportLegacyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy FILE",
		Short: "Import undated per-region records",
		Long: `Import a JSON array of undated records, one per region, as the legacy
fallback views serve when a region has no dated snapshot. Use "-" to read
from stdin.

Record shape:
  {"region":"US","topics":[{"title":"..."}],"source":"search_api","fetched_at":"2024-03-01T08:00:00Z"}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			ctx := cmd.Context()
			repo, err := openRepository(ctx, a.cfg)
			if err != nil {
				return fmt.Errorf("open snapshot store: %w", err)
			}
			defer repo.Close()

			store := snapshot.NewStore(repo, clockwork.NewRealClock(), a.logger)
			n, err := importLegacy(ctx, in, store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d legacy records\n", n)
			return nil
		},
	}
}

// importLegacy decodes records from r and imports them in order. It stops at
// the first invalid record; records before it stay imported.
func importLegacy(ctx context.Context, r io.Reader, store *snapshot.Store) (int, error) {
	var records []domain.Snapshot
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("decode legacy records: %w", err)
	}
	for i, rec := range records {
		if _, err := store.ImportLegacy(ctx, rec); err != nil {
			return i, fmt.Errorf("record %d (%s): %w", i, rec.Region, err)
		}
	}
	return len(records), nil
}
