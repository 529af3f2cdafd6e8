package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/onedollarbanana/FictionForge-sub002/internal/application/importer"
	"github.com/onedollarbanana/FictionForge-sub002/internal/config"
	"github.com/onedollarbanana/FictionForge-sub002/internal/wire"
)

type parseOptions struct {
	format string
	pretty bool
}

func parseCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var opts parseOptions

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse an EPUB, DOCX or text file and print its chapters as JSON",
		Long: `Parse a manuscript with the same rules as the import API.

The format is taken from the file extension unless --format is given.
Use "-" as the file to read pasted text from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			docx, err := wire.ProvideDocxConverter(cfg)
			if err != nil {
				return err
			}
			imp := importer.New(docx, wire.ImporterOptions(cfg))
			return runParse(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), imp, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Input format (epub, docx, text)")
	cmd.Flags().BoolVarP(&opts.pretty, "pretty", "p", false, "Indent JSON output")

	return cmd
}

func runParse(ctx context.Context, stdin io.Reader, out io.Writer, imp *importer.Importer, path string, opts parseOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := resolveFormat(path, opts.format)
	if err != nil {
		return err
	}

	data, err := readInput(stdin, path, imp.MaxUploadBytes())
	if err != nil {
		return err
	}

	chapters, err := imp.Parse(ctx, format, data)
	if err != nil {
		return describeImportError(err)
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(struct {
		Format   importer.Format          `json:"format"`
		Chapters []importer.ParsedChapter `json:"chapters"`
	}{Format: format, Chapters: chapters})
}

func resolveFormat(path, flag string) (importer.Format, error) {
	if flag != "" {
		return importer.ParseFormat(flag)
	}
	if path == "-" {
		return importer.FormatText, nil
	}
	format, err := importer.DetectFormat(filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("%w: cannot infer format from %q, pass --format", err, filepath.Ext(path))
	}
	return format, nil
}

func readInput(stdin io.Reader, path string, limit int64) ([]byte, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	// 多读一个字节，由导入器判定是否超限
	return io.ReadAll(io.LimitReader(r, limit+1))
}

// describeImportError 在错误后附上给作者的修复建议
func describeImportError(err error) error {
	var formatErr *importer.FormatError
	if errors.As(err, &formatErr) {
		return fmt.Errorf("%w\nhint: %s", err, formatErr.Hint())
	}
	var emptyErr *importer.EmptyResultError
	if errors.As(err, &emptyErr) {
		return fmt.Errorf("%w\nhint: %s", err, emptyErr.Hint())
	}
	return err
}
