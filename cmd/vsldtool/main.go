// Command vsldtool inspects .vsld chunked archive files without a
// running module host, the Go counterpart of the original's
// module/general/Cache/vistle_ls.cpp.
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vistle-sys/vistle/internal/chunkfile"
	"github.com/vistle-sys/vistle/internal/vversion"
)

var rootCmd = &cobra.Command{
	Use:           "vsldtool",
	Short:         "Inspect Vistle chunked archive (.vsld) files",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(listCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(vversion.Banner())
	},
}

var (
	filterStart    int
	filterStop     int
	filterStep     int
	filterRenumber bool
	reorder        bool
)

var listCmd = &cobra.Command{
	Use:   "list <file> [file...]",
	Short: "List the directory entries and port objects in one or more .vsld files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var totalRaw, totalCompressed uint64
		var numFiles, numErrors int

		for _, filename := range args {
			numFiles++
			if len(args) > 1 {
				fmt.Printf("%s:\n", filename)
			}
			raw, compressed, err := listFile(filename)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not read %s: %v\n", filename, err)
				numErrors++
				continue
			}
			totalRaw += raw
			totalCompressed += compressed
		}

		if numFiles > 1 {
			fmt.Printf("%d files", numFiles)
			if numErrors > 0 {
				fmt.Printf(", %d errors", numErrors)
			}
			fmt.Printf(", %d total data bytes", totalRaw)
			if totalCompressed != totalRaw {
				fmt.Printf(" (%d compressed, %.1f%%)", totalCompressed, 100*float64(totalCompressed)/float64(totalRaw))
			}
			fmt.Println()
		}
		if numErrors > 0 {
			return fmt.Errorf("%d of %d files failed to read", numErrors, numFiles)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&filterStart, "start", 0, "lowest timestep to include")
	listCmd.Flags().IntVar(&filterStop, "stop", -1, "highest timestep to include (-1 for unbounded)")
	listCmd.Flags().IntVar(&filterStep, "step", 1, "timestep stride")
	listCmd.Flags().BoolVar(&filterRenumber, "renumber", false, "rewrite surviving timesteps to (t-start)/step")
	listCmd.Flags().BoolVar(&reorder, "reorder", false, "replay port objects grouped by timestep then port instead of on-disk order")
}

// chunkReader is the common surface of chunkfile.Reader,
// chunkfile.FilteredReader and chunkfile.ReorderReader.
type chunkReader interface {
	Next() (chunkfile.ChunkType, interface{}, error)
}

func listFile(filename string) (rawTotal, compressedTotal uint64, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	var r chunkReader = chunkfile.NewReader(f)
	if reorder {
		rr, err := chunkfile.NewReorderReader(r.(*chunkfile.Reader))
		if err != nil {
			return 0, 0, err
		}
		r = rr
	} else if filterStop >= 0 || filterStart > 0 || filterStep > 1 || filterRenumber {
		r = chunkfile.NewFilteredReader(r.(*chunkfile.Reader), chunkfile.TimestepFilter{
			Start: filterStart, Stop: filterStop, Step: filterStep, Renumber: filterRenumber,
		})
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	var numArrays, numObjects, numPortObjects int
	for {
		typ, val, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			tw.Flush()
			return rawTotal, compressedTotal, err
		}

		switch typ {
		case chunkfile.ChunkArchive:
			e := val.(chunkfile.DirectoryEntry)
			kind := "o"
			if e.IsArray {
				kind = "a"
				numArrays++
			} else {
				numObjects++
			}
			rawTotal += e.UncompressedSize
			compressedTotal += uint64(len(e.CompressedBytes))
			ratio := ""
			if e.CompressionMode != "None" {
				pct := 100 * float64(len(e.CompressedBytes)) / float64(max1(e.UncompressedSize))
				ratio = fmt.Sprintf(" (%.1f%%)", pct)
			}
			fmt.Fprintf(tw, "\t%s\t%s\t%d\t%s\t%d%s\n", e.Name, kind, e.UncompressedSize, e.CompressionMode, len(e.CompressedBytes), ratio)
		case chunkfile.ChunkPortObject:
			po := val.(chunkfile.PortObjectHeader)
			numPortObjects++
			fmt.Fprintf(tw, "\t%s\tt=%d\tblock=%d\tport=%d\n", po.Object, po.Timestep, po.Block, po.Port)
		case chunkfile.ChunkDirectory:
			// sentinel between the directory section and port objects; nothing to print
		}
	}
	tw.Flush()

	fmt.Printf("\t%d data bytes", rawTotal)
	if compressedTotal != rawTotal {
		fmt.Printf(" (%d compressed, %.1f%%)", compressedTotal, 100*float64(compressedTotal)/float64(max1(rawTotal)))
	}
	fmt.Println()
	fmt.Printf("\t%d arrays, %d objects, %d port objects\n", numArrays, numObjects, numPortObjects)
	return rawTotal, compressedTotal, nil
}

func max1(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	return v
}
