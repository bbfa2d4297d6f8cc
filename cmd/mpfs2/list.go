package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rene-d/mpfs2"
	"github.com/spf13/cobra"
)

var (
	listVerbose bool
	listAll     bool
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:   "list <image>",
	Short: "List the files contained in an image",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listVerbose, "verbose", "v", false, "dump every record field")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include dynamic-variable index records")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "emit the listing as JSON")
}

type entryJSON struct {
	Name      string    `json:"name"`
	Size      uint32    `json:"size"`
	Timestamp time.Time `json:"timestamp"`
	Zipped    bool      `json:"zipped"`
	HasIndex  bool      `json:"has_index"`
	Index     bool      `json:"index"`
}

type listingJSON struct {
	Version   string           `json:"version"`
	Files     []entryJSON      `json:"files"`
	Variables []mpfs2.Variable `json:"variables,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	fs, err := loadFileSystem(args[0])
	if fs != nil {
		if listJSON {
			printListingJSON(fs)
		} else {
			printListing(fs)
		}
	}
	if err != nil {
		log.Errorw("directory walk failed", "image", args[0], "decoded_entries", entryCount(fs), "error", err)
	}
	return err
}

func entryCount(fs *mpfs2.FileSystem) int {
	if fs == nil {
		return 0
	}
	return len(fs.Entries)
}

func printListing(fs *mpfs2.FileSystem) {
	indexes := 0
	for _, e := range fs.Entries {
		if e.IsIndex {
			indexes++
		}
	}
	fmt.Printf("Version: %s\n", fs.Header.Version)
	fmt.Printf("Number of files: %d (%d regular, %d index)\n", len(fs.Entries), len(fs.Entries)-indexes, indexes)
	fmt.Printf("Number of dynamic variables: %d\n", len(fs.Variables))

	for i, e := range fs.Entries {
		name := entryDisplayName(fs.Entries, i)
		timestamp := e.ModTime().Format("2006-01-02T15:04:05Z")

		if listVerbose {
			fmt.Println()
			fmt.Printf("FileRecord %d:\n", i)
			fmt.Printf("    .StringPtr = %d %s\n", e.StringPtr, name)
			fmt.Printf("    .DataPtr   = %d\n", e.DataPtr)
			fmt.Printf("    .Len       = %d\n", e.Length)
			fmt.Printf("    .Timestamp = %s\n", timestamp)
			fmt.Printf("    .Flags     = %d %s\n", e.Flags, flagNames(e))
			continue
		}
		if e.IsIndex && !listAll {
			continue
		}
		fmt.Printf("%4d  %s  %8d  %s  %s\n", i, flagChars(e), e.Length, timestamp, name)
	}
}

func printListingJSON(fs *mpfs2.FileSystem) {
	listing := listingJSON{
		Version:   fs.Header.Version.String(),
		Variables: fs.Variables,
	}
	for i, e := range fs.Entries {
		if e.IsIndex && !listAll {
			continue
		}
		listing.Files = append(listing.Files, entryJSON{
			Name:      entryDisplayName(fs.Entries, i),
			Size:      e.Length,
			Timestamp: e.ModTime(),
			Zipped:    e.Zipped(),
			HasIndex:  e.HasIndex(),
			Index:     e.IsIndex,
		})
	}
	out, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		log.Errorw("encode listing", "error", err)
		return
	}
	fmt.Println(string(out))
}

func flagChars(e *mpfs2.FileEntry) string {
	flags := "--"
	if e.HasIndex() {
		flags = "i" + flags[1:]
	}
	if e.Zipped() {
		flags = flags[:1] + "z"
	}
	return flags
}

func flagNames(e *mpfs2.FileEntry) string {
	var names []string
	if e.HasIndex() {
		names = append(names, "HASINDEX")
	}
	if e.Zipped() {
		names = append(names, "ISZIPPED")
	}
	return strings.Join(names, ",")
}
