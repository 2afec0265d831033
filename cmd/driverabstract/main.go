package main

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insurelab/driverabstract/pkg/driver"
	"github.com/insurelab/driverabstract/pkg/pattern"
	"github.com/insurelab/driverabstract/pkg/trace"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "driverabstract",
		Short: "Driver-history document extraction",
		Long: `driverabstract converts raw text recovered from DASH and MVR
driver-history documents into a normalized, structured record.

It expects the document text to be extracted upstream (all pages, in
order, newline-separated) and prints the resulting record as JSON.`,
		Version: version,
	}

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(patternsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseCmd() *cobra.Command {
	var (
		kindFlag    string
		patternsDir string
		verbose     bool
		pretty      bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse extracted document text into a record",
		Long: `Parse reads the extracted text of one document (from a file, or
stdin when the argument is "-" or omitted) and prints the record as JSON.

Example:
  driverabstract parse --kind dash abstract.txt
  pdftotext report.pdf - | driverabstract parse --kind mvr -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := driver.ParseKind(kindFlag)
			if err != nil {
				return err
			}

			text, err := readInput(args)
			if err != nil {
				return err
			}

			rules, err := loadRules(patternsDir)
			if err != nil {
				return err
			}

			opts := []driver.Option{driver.WithRules(rules)}
			if verbose {
				log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
					With().Timestamp().Logger().Level(zerolog.DebugLevel)
				opts = append(opts, driver.WithSink(trace.NewLogger(log)))
			}

			p, err := driver.NewParser(opts...)
			if err != nil {
				return err
			}

			doc := p.Parse(kind, string(text))

			var out []byte
			if pretty {
				out, err = json.MarshalIndent(doc, "", "  ")
			} else {
				out, err = json.Marshal(doc)
			}
			if err != nil {
				return fmt.Errorf("encoding record: %w", err)
			}
			fmt.Println(string(out))

			if !doc.Success {
				return fmt.Errorf("parse failed: %s", doc.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "document kind: dash or mvr (required)")
	cmd.Flags().StringVar(&patternsDir, "patterns-dir", "", "directory of YAML rule files overriding the built-ins of the same kind")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log extraction trace events to stderr")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func patternsCmd() *cobra.Command {
	var patternsDir string

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the loaded extraction rule libraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(patternsDir)
			if err != nil {
				return err
			}
			for _, lib := range rules.List() {
				fmt.Printf("%s (kind=%s, version=%s)\n", lib.Name, lib.Kind, lib.Version)
				fmt.Printf("  fields: %d, sections: %d, conviction rules: %d\n",
					len(lib.Fields), len(lib.Sections), len(lib.Convictions))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&patternsDir, "patterns-dir", "", "directory of YAML rule files overriding the built-ins of the same kind")
	return cmd
}

func loadRules(dir string) (*pattern.Registry, error) {
	rules, err := pattern.LoadBuiltin()
	if err != nil {
		return nil, fmt.Errorf("loading built-in rules: %w", err)
	}
	if dir != "" {
		if err := rules.LoadDirectory(dir); err != nil {
			return nil, fmt.Errorf("loading rules from %s: %w", dir, err)
		}
	}
	return rules, nil
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return text, nil
	}
	text, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return text, nil
}
