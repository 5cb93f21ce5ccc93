package main

import (
	"fmt"
	"io"
)

// Reporter renders upload progress as human-readable lines and tracks
// running totals for one invocation. The banner and summary lines are
// always printed; per-file and per-folder lines are gated by verbosity.
type Reporter struct {
	out     io.Writer
	verbose bool

	totalCount     int
	totalSize      int64
	totalSizeHuman string
	uploadedCount  int
	uploadedSize   int64
}

func NewReporter(out io.Writer, verbose bool) *Reporter {
	return &Reporter{out: out, verbose: verbose}
}

// RootCreated announces the mirrored root folder.
func (r *Reporter) RootCreated(name string) {
	fmt.Fprintf(r.out, "Folder `%s` is created.\n", name)
}

// Begin records the pre-scan totals and prints the upload banner when
// there is at least one file to upload.
func (r *Reporter) Begin(totalCount int, totalSize int64) {
	r.totalCount = totalCount
	r.totalSize = totalSize
	r.totalSizeHuman = humanSize(totalSize)

	if totalCount > 0 {
		fmt.Fprintf(r.out, "Uploading %d files (%s).\n", totalCount, r.totalSizeHuman)
	}
}

func (r *Reporter) FolderCreated(displayPath string) {
	if r.verbose {
		fmt.Fprintf(r.out, "Folder %s is created.\n", displayPath)
	}
}

// FileUploaded advances the counters and, when verbose, prints the per-file
// line followed by the running progress line.
func (r *Reporter) FileUploaded(displayPath string, size int64) {
	r.uploadedCount++
	r.uploadedSize += size

	if !r.verbose {
		return
	}
	fmt.Fprintf(r.out, "File `%s` is uploaded.\n", displayPath)
	fmt.Fprintf(r.out, "Uploaded %d of %d files (%s / %s).\n",
		r.uploadedCount, r.totalCount, humanSize(r.uploadedSize), r.totalSizeHuman)
}

// Summary prints the final line for the invocation.
func (r *Reporter) Summary(base, target, name string) {
	line := fmt.Sprintf("Uploaded `%s`", base)
	if target != "" {
		line += fmt.Sprintf(" into `%s`", target)
	}
	if name != base {
		line += fmt.Sprintf(" as `%s`", name)
	}
	if r.totalCount > 0 {
		line += fmt.Sprintf(" (%d files (%s))", r.totalCount, r.totalSizeHuman)
	}
	fmt.Fprintf(r.out, "%s.\n", line)
}

func (r *Reporter) UploadedCount() int  { return r.uploadedCount }
func (r *Reporter) UploadedSize() int64 { return r.uploadedSize }
func (r *Reporter) TotalCount() int     { return r.totalCount }
func (r *Reporter) TotalSize() int64    { return r.totalSize }
