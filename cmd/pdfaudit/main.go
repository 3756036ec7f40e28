// Command pdfaudit reports how PDFs on disk line up with database records:
// files no record points to, and records whose PDF cannot be found.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/speeditsch-ui/invoice-frontend/internal/config"
	"github.com/speeditsch-ui/invoice-frontend/internal/logger"
	"github.com/speeditsch-ui/invoice-frontend/internal/models"
	"github.com/speeditsch-ui/invoice-frontend/internal/repositories"
	"github.com/speeditsch-ui/invoice-frontend/internal/services"
)

type auditEnv struct {
	refs     []models.FileRef
	resolver services.PDFResolver
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var asJSON bool

	root := &cobra.Command{
		Use:          "pdfaudit",
		Short:        "Compare the PDF root with the records that reference it",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of text")

	var unlinkedOnly bool
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "List PDFs under the root with the record each one belongs to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := services.NewReconciler(env.resolver).Reconcile(cmd.Context(), env.refs)
			if err != nil {
				return err
			}
			if unlinkedOnly {
				entries = unlinked(entries)
			}
			return printFiles(cmd.OutOrStdout(), entries, asJSON)
		},
	}
	filesCmd.Flags().BoolVar(&unlinkedOnly, "unlinked", false, "only show files without a record")

	missingCmd := &cobra.Command{
		Use:   "missing",
		Short: "List records whose PDF cannot be resolved",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			missing, err := missingRecords(env.resolver, env.refs)
			if err != nil {
				return err
			}
			return printMissing(cmd.OutOrStdout(), missing, asJSON)
		},
	}

	root.AddCommand(filesCmd, missingCmd)
	return root
}

func loadEnv(ctx context.Context) (*auditEnv, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logger.Level)
	if err != nil {
		return nil, err
	}
	// Only warnings and errors while auditing.
	log = log.WithOptions(zap.IncreaseLevel(zap.WarnLevel))

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	var refs []models.FileRef
	switch cfg.Storage.Schema {
	case config.SchemaDocuments:
		refs, err = repositories.NewDocumentRepository(db).FileRefs(ctx)
	default:
		refs, err = repositories.NewInvoiceRepository(db).FileRefs(ctx)
	}
	if err != nil {
		return nil, err
	}

	return &auditEnv{
		refs:     refs,
		resolver: services.NewPDFResolver(cfg.Storage.PDFRoot, cfg.Storage.LegacyPrefixes),
	}, nil
}

func unlinked(entries []models.FileEntry) []models.FileEntry {
	out := make([]models.FileEntry, 0, len(entries))
	for _, e := range entries {
		if e.InvoiceID == nil {
			out = append(out, e)
		}
	}
	return out
}

type missingRecord struct {
	ID         int64  `json:"id"`
	StoredPath string `json:"stored_path"`
	Reason     string `json:"reason"`
}

// missingRecords resolves every record's PDF. A root that cannot be opened
// aborts the audit instead of flagging every record.
func missingRecords(resolver services.PDFResolver, refs []models.FileRef) ([]missingRecord, error) {
	if _, err := resolver.Root(); err != nil {
		return nil, err
	}

	var out []missingRecord
	for _, ref := range refs {
		_, err := resolver.Resolve(ref.StoredPath, ref.ContentHash)
		switch {
		case err == nil:
			continue
		case errors.Is(err, services.ErrPathTraversal):
			out = append(out, missingRecord{ID: ref.ID, StoredPath: ref.StoredPath, Reason: "path escapes root"})
		case ref.StoredPath == "" && !services.IsContentHash(ref.ContentHash):
			out = append(out, missingRecord{ID: ref.ID, Reason: "no path stored"})
		default:
			out = append(out, missingRecord{ID: ref.ID, StoredPath: ref.StoredPath, Reason: "file not found"})
		}
	}
	return out, nil
}

func printFiles(w io.Writer, entries []models.FileEntry, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(models.FileListResponse{Total: len(entries), Files: entries})
	}
	for _, e := range entries {
		linked := "-"
		if e.InvoiceID != nil {
			linked = fmt.Sprintf("#%d", *e.InvoiceID)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.Modified.Format("2006-01-02 15:04"), e.Size, linked, e.Filename)
	}
	fmt.Fprintf(w, "%d file(s)\n", len(entries))
	return nil
}

func printMissing(w io.Writer, missing []missingRecord, asJSON bool) error {
	if asJSON {
		if missing == nil {
			missing = []missingRecord{}
		}
		return json.NewEncoder(w).Encode(missing)
	}
	for _, m := range missing {
		fmt.Fprintf(w, "#%d\t%s\t%s\n", m.ID, m.Reason, m.StoredPath)
	}
	fmt.Fprintf(w, "%d record(s) without a PDF\n", len(missing))
	return nil
}
