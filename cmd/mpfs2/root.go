package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rene-d/mpfs2"
	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base CLI command
var rootCmd = &cobra.Command{
	Use:   "mpfs2",
	Short: "Inspect and extract Microchip MPFS2 filesystem images",
	Long: `mpfs2 reads Microchip Proprietary File System v2 images - the
read-only filesystem blobs embedded into PIC microcontroller firmware by the
TCP/IP stack tooling - and lists or extracts the files and dynamic variables
they contain.

Images can be raw .bin blobs or Intel HEX firmware files (.hex), in which
case the embedded filesystem is located automatically.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(cfgFile); err != nil {
			return err
		}

		// CLI flags override config settings
		if err := v.BindPFlag("debug", cmd.Root().PersistentFlags().Lookup("debug")); err != nil {
			return err
		}
		if err := v.BindPFlag("log_format", cmd.Root().PersistentFlags().Lookup("log-format")); err != nil {
			return err
		}

		return initLogging(v.GetBool("debug"), v.GetString("log_format"))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is searched in standard locations)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "human", "log format: json or human")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(varsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadFileSystem reads and parses an image file; .hex inputs are treated as
// Intel HEX firmware holding an embedded image. A partially decoded
// filesystem is returned alongside the error so callers can still report the
// entries that decoded before the failure point.
func loadFileSystem(path string) (*mpfs2.FileSystem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	if strings.EqualFold(filepath.Ext(path), ".hex") {
		return mpfs2.ExtractFromHex(f, nil)
	}
	return mpfs2.ParseImage(f, nil)
}

// entryDisplayName resolves the listing name of entry i: index records take
// the owning file's name with an "-index" suffix.
func entryDisplayName(entries []*mpfs2.FileEntry, i int) string {
	e := entries[i]
	if e.IsIndex && i > 0 {
		return entries[i-1].DisplayName() + "-index"
	}
	return e.DisplayName()
}

// versionCmd shows the application version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("mpfs2 v0.1.0")
	},
}
