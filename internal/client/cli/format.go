package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/cloudstorage/internal/cloudpb"
	"github.com/dustin/go-humanize"
)

const timeLayout = "2006-01-02 15:04:05"

func humanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func printFile(w io.Writer, f cloudpb.FileInfo) {
	fmt.Fprintf(w, "%s\t%s\t%s\n", f.Filename, humanSize(f.Size), f.UploadTime.Local().Format(timeLayout))
}

func printFiles(w io.Writer, files []cloudpb.FileInfo, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tUPLOADED")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Filename, humanSize(f.Size), humanize.RelTime(f.UploadTime, now, "ago", "from now"))
	}
	tw.Flush()
}
