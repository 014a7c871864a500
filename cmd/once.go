package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/lunchmenu/internal/app"
	"github.com/JakeFAU/lunchmenu/internal/hash/sha256"
	"github.com/JakeFAU/lunchmenu/internal/storage/memory"
)

func newOnceCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single cycle and exit",
		Long: `Runs one cycle, including its retries, and exits. The exit status is
non-zero when every attempt failed. With --dry-run the document is written
to stdout and the output path is left alone.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}

			opts := app.Options{}
			var dry *memory.Publisher
			if dryRun {
				dry = memory.NewPublisher()
				opts.Publisher = dry
			}

			a, err := newApp(cmd.Context(), e.cfg, e.logger, opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			defer a.Close()

			report, err := a.RunCycle(cmd.Context())
			if err != nil {
				return err
			}
			e.logger.Info("cycle complete",
				zap.String("cycle_id", report.CycleID),
				zap.String("day", report.TargetDay),
				zap.Int("attempts", report.Attempts),
				zap.String("digest", sha256.Short(report.Digest)),
			)

			if dry != nil {
				doc, _ := dry.Get(e.cfg.Output.Path)
				if _, err := cmd.OutOrStdout().Write(doc); err != nil {
					return fmt.Errorf("write document: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the document instead of publishing it")
	return cmd
}
