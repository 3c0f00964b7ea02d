package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"alumni-engine/internal/audit"
	"alumni-engine/internal/domain"
	"alumni-engine/internal/profileurl"
)

var (
	runCohort      string
	runConcurrency int
	runStrategy    string
	stopGrace      = 30 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Process a .json or .csv list of alumni as one batch",
	Long: `Process a list of alumni as one batch and print the final job state.

JSON input is an array (or {"items": [...]}) of objects with name,
cohortHint and knownUrl. CSV input needs a header with a "name" column and
optionally "batch" and a LinkedIn URL column.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := readItems(args[0], runCohort)
		if err != nil {
			return err
		}
		return runItems(cmd, items)
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry <failed_profiles_*.json>",
	Short: "Re-run the items recorded in a failed-profiles audit file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := audit.LoadFailed(args[0])
		if err != nil {
			return err
		}
		return runItems(cmd, rec.WorkItems())
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file-or-dir>...",
	Short: "Transform and store saved collector payloads without fetching",
	Long: `Import raw collector payloads (for example audit/raw/*_apify.json).
Directories are scanned for *.json files. The _metadata block written by the
engine supplies the cohort and profile URL.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := readRawFiles(args, runCohort)
		if err != nil {
			return err
		}
		return runItems(cmd, items)
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, retryCmd, importCmd} {
		c.Flags().IntVarP(&runConcurrency, "concurrency", "c", 0, "parallel workers (default from config)")
	}
	for _, c := range []*cobra.Command{runCmd, retryCmd} {
		c.Flags().StringVar(&runStrategy, "strategy", "", "primary, fallback or auto (default from config)")
	}
	runCmd.Flags().StringVar(&runCohort, "cohort", "", "cohort for rows without one, e.g. 2019-2023")
	importCmd.Flags().StringVar(&runCohort, "cohort", "", "cohort for payloads without _metadata.batch")
}

// runItems submits items as one batch and waits for it. SIGINT/SIGTERM ask the
// batch to stop; in-flight items get stopGrace to finish.
func runItems(cmd *cobra.Command, items []domain.WorkItem) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	jobID, err := a.orch.Submit(items, runConcurrency, runStrategy)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		_ = a.orch.Wait(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("interrupted, stopping batch")
		a.shutdown(stopGrace)
	}

	st := a.orch.Status()
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"jobId":     jobID,
		"phase":     st.Phase,
		"total":     st.Total,
		"processed": st.ProcessedCount,
		"succeeded": st.Succeeded,
		"failed":    st.Failed(),
		"auditFile": st.AuditFile,
	})
}

// readRawFiles loads saved payloads as work items carrying RawPayload.
func readRawFiles(paths []string, cohort string) ([]domain.WorkItem, error) {
	var files []string
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .json files in %s", strings.Join(paths, ", "))
	}

	items := make([]domain.WorkItem, 0, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		var env struct {
			Meta domain.RawMetadata `json:"_metadata"`
		}
		if err := json.Unmarshal(b, &env); err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		it := domain.WorkItem{
			Name:       nameFromRawFile(f),
			CohortHint: firstNonEmpty(env.Meta.Batch, cohort),
			RawPayload: b,
		}
		if profileurl.IsProfile(env.Meta.OriginalURL) {
			it.KnownURL = env.Meta.OriginalURL
		}
		items = append(items, it)
	}
	return items, nil
}

// nameFromRawFile turns "asha_rao_apify.json" into "asha rao". The payload's
// own name wins during transform; this is only the label.
func nameFromRawFile(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.TrimSuffix(base, "_apify")
	return strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
