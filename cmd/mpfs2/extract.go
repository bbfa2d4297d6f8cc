package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rene-d/mpfs2"
	"github.com/spf13/cobra"
)

var (
	extractDir     string
	extractVerbose bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Extract the contained files to a directory",
	Long: `Extract writes every named file in the image to the output directory,
inflating GZIP-compressed payloads. Dynamic variables, when present, are
written to DYNAMIC_VARIABLES.idx.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractDir, "dir", "d", "", "directory to extract files to (default \"export\")")
	extractCmd.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "report every extracted file")
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractDir == "" {
		extractDir = v.GetString("extract_dir")
	}

	fs, walkErr := loadFileSystem(args[0])
	if fs == nil {
		return walkErr
	}

	// extract what decoded even if the walk failed partway
	for i, e := range fs.Entries {
		if e.IsIndex || e.Name == "" {
			continue
		}
		if err := extractEntry(e, entryDisplayName(fs.Entries, i)); err != nil {
			return err
		}
	}

	if len(fs.Variables) > 0 {
		if err := writeVariablesIndex(fs.Variables); err != nil {
			return err
		}
	}

	if walkErr != nil {
		log.Errorw("image only partially extracted", "image", args[0], "extracted_entries", len(fs.Entries), "error", walkErr)
	}
	return walkErr
}

func extractEntry(e *mpfs2.FileEntry, name string) error {
	dest, err := safeJoin(extractDir, name)
	if err != nil {
		return err
	}
	data, err := e.Data()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return err
	}
	if extractVerbose {
		log.Infow("extracted", "file", dest, "bytes", len(data))
	}
	return nil
}

func writeVariablesIndex(variables []mpfs2.Variable) error {
	var b strings.Builder
	for _, variable := range variables {
		fmt.Fprintf(&b, "%d %s\n", variable.Number, variable.Name)
	}
	if err := os.MkdirAll(extractDir, 0755); err != nil {
		return err
	}
	dest := filepath.Join(extractDir, "DYNAMIC_VARIABLES.idx")
	if err := os.WriteFile(dest, []byte(b.String()), 0644); err != nil {
		return err
	}
	if extractVerbose {
		log.Infow("created", "file", dest, "variables", len(variables))
	}
	return nil
}

// safeJoin joins an archive-supplied name under dir, refusing names that
// would escape it.
func safeJoin(dir, name string) (string, error) {
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("refusing absolute file name %q", name)
	}
	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("refusing file name %q outside the extract directory", name)
	}
	return filepath.Join(dir, clean), nil
}
