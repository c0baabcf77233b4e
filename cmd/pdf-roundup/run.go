package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-roundup/internal/history"
	"github.com/pdiddy/pdf-roundup/internal/roundup"
	"github.com/pdiddy/pdf-roundup/internal/runlog"
	"github.com/pdiddy/pdf-roundup/internal/secrets"
	"github.com/pdiddy/pdf-roundup/pkg/types"
)

const (
	defaultEndpoint  = "https://api.example.com/get_pdf"
	defaultUserAgent = "pdf-roundup/0.1"
)

var runCmd = &cobra.Command{
	Use:   "run <input.csv|input.xlsx|input.xls>",
	Short: "Download the PDF for every part number in a spreadsheet",
	Long: `Run reads part numbers from the first column of the input (the first row
is a header), looks up a signed URL for each one, downloads the documents into
a temporary work directory, and packages them into the output directory.

Packaging is selected with --zip:
  none    move the PDFs into the output directory
  single  one archive, output.zip
  count   archives of at most --count files, output_1.zip, output_2.zip, ...
  size    archives of at most --max-size bytes (e.g. 10MB)

Every part number gets one line in the run log, "ID: SUCCESS <url>" or
"ID: ERROR <detail>". A failure never stops the remaining downloads.`,
	Args: cobra.ExactArgs(1),
	RunE: runRoundup,
}

// runFlags are bound into viper so each can also come from the config file
// or a PDF_ROUNDUP_* environment variable.
var runFlags = []string{
	"endpoint", "api-key", "key-file", "output", "zip", "count", "max-size",
	"on-collision", "workers", "timeout", "user-agent", "validate-pdf",
	"manifest", "log-name", "history-db", "no-history", "metrics-file",
	"publish", "s3-endpoint", "s3-region",
}

func init() {
	f := runCmd.Flags()
	f.String("endpoint", defaultEndpoint, "lookup API endpoint")
	f.String("api-key", "", "API key for this run only; not saved (default: saved key, or prompt)")
	f.String("key-file", "", "saved API key location (default ~/.pdf_roundup/key.json)")
	f.StringP("output", "o", ".", "output directory")
	f.String("zip", string(types.PolicySingle), "packaging: none, single, count, or size")
	f.Int("count", 10, "files per archive with --zip count")
	f.String("max-size", "10MB", "maximum archive content size with --zip size (KB, MB, GB)")
	f.String("on-collision", string(types.CollisionOverwrite), "existing files with --zip none: overwrite or fail")
	f.Int("workers", 1, "concurrent downloads; 1 processes part numbers one at a time")
	f.Duration("timeout", 0, "HTTP request timeout (0 keeps the transport default)")
	f.String("user-agent", defaultUserAgent, "User-Agent header")
	f.Bool("validate-pdf", false, "reject downloads that are not valid PDF documents")
	f.Bool("manifest", false, "write manifest.yaml listing the produced files")
	f.String("log-name", runlog.DefaultName, "run log file name inside the output directory")
	f.String("history-db", "", "run history database (default ~/.pdf_roundup/history.db)")
	f.Bool("no-history", false, "do not record the run in the history database")
	f.String("metrics-file", "", "write Prometheus metrics in text format to this file")
	f.String("publish", "", "upload the outputs to s3://bucket/prefix or gs://bucket/prefix")
	f.String("s3-endpoint", "", "custom endpoint for S3-compatible storage")
	f.String("s3-region", "", "S3 region (default from the AWS configuration)")

	for _, name := range runFlags {
		viper.BindPFlag(name, f.Lookup(name))
	}

	rootCmd.AddCommand(runCmd)
}

// buildConfig assembles the run configuration from viper, which layers
// flags over environment over the config file.
func buildConfig(input string) (types.RoundupConfig, error) {
	policy, err := parsePolicy(viper.GetString("zip"), viper.GetInt("count"), viper.GetString("max-size"))
	if err != nil {
		return types.RoundupConfig{}, err
	}

	workers := viper.GetInt("workers")
	if workers < 1 {
		return types.RoundupConfig{}, &types.ConfigError{Field: "workers", Value: viper.GetString("workers"), Reason: "must be at least 1"}
	}

	historyDB := ""
	if !viper.GetBool("no-history") {
		historyDB = viper.GetString("history-db")
		if historyDB == "" {
			if historyDB, err = history.DefaultPath(); err != nil {
				return types.RoundupConfig{}, err
			}
		}
	}

	return types.RoundupConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("timeout"),
				UserAgent: viper.GetString("user-agent"),
			},
			Endpoint:    viper.GetString("endpoint"),
			ValidatePDF: viper.GetBool("validate-pdf"),
			Workers:     workers,
		},
		Publish: types.PublishConfig{
			Target:      viper.GetString("publish"),
			S3Endpoint:  viper.GetString("s3-endpoint"),
			S3Region:    viper.GetString("s3-region"),
			S3AccessKey: viper.GetString("s3-access-key"),
			S3SecretKey: viper.GetString("s3-secret-key"),
		},
		InputPath:   input,
		OutputDir:   viper.GetString("output"),
		Policy:      policy,
		OnCollision: types.CollisionPolicy(viper.GetString("on-collision")),
		LogName:     viper.GetString("log-name"),
		Manifest:    viper.GetBool("manifest"),
		HistoryDB:   historyDB,
		MetricsFile: viper.GetString("metrics-file"),
	}, nil
}

// parsePolicy maps the --zip, --count, and --max-size settings to a policy.
// Count and size are only consulted by the modes that use them.
func parsePolicy(mode string, count int, maxSize string) (types.OutputPolicy, error) {
	p := types.OutputPolicy{Mode: types.PolicyMode(strings.ToLower(strings.TrimSpace(mode)))}
	switch p.Mode {
	case types.PolicyCount:
		p.Count = count
	case types.PolicySize:
		n, err := types.ParseSize(maxSize)
		if err != nil {
			return types.OutputPolicy{}, err
		}
		p.MaxBytes = n
	}
	return p, p.Validate()
}

func keyStore(cmd *cobra.Command) (*secrets.Store, error) {
	path := viper.GetString("key-file")
	if path == "" {
		var err error
		if path, err = secrets.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return &secrets.Store{
		Path:     path,
		Override: viper.GetString("api-key"),
		Prompt:   secrets.LinePrompter{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()},
	}, nil
}

func runRoundup(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(args[0])
	if err != nil {
		return err
	}

	store, err := keyStore(cmd)
	if err != nil {
		return err
	}
	apiKey, err := store.Get()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	summary, err := roundup.Run(cmd.Context(), cfg, apiKey, roundup.Deps{
		Observer: &lineObserver{w: out},
	})
	printSummary(out, summary)
	return err
}

// lineObserver prints status and log lines as they arrive.
type lineObserver struct {
	w io.Writer
}

func (o *lineObserver) Status(text string) { fmt.Fprintln(o.w, text) }
func (o *lineObserver) Logged(line string) { fmt.Fprintln(o.w, "  "+line) }

func printSummary(w io.Writer, s types.RunSummary) {
	if s.Finished.IsZero() {
		return
	}
	fmt.Fprintf(w, "\nRun %s: %d total, %d downloaded, %d failed (%s)\n",
		s.RunID, s.Total, s.Downloaded, s.Failed, s.Finished.Sub(s.Started).Round(time.Millisecond))
	for _, p := range s.Archives {
		fmt.Fprintf(w, "  archive   %s\n", p)
	}
	for _, p := range s.Moved {
		fmt.Fprintf(w, "  file      %s\n", p)
	}
	for _, p := range s.Published {
		fmt.Fprintf(w, "  published %s\n", p)
	}
}
