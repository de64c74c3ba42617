package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// mainChannelDir is the destination subdirectory for tiles without a
// channel label.
const mainChannelDir = "main"

// organizeOpts holds the command-line flags for the organize command.
type organizeOpts struct {
	pattern string
	cols    int
	copy    bool
}

// newOrganizeCmd creates the organize command. Instruments dump every
// channel of a capture session into one directory; organize splits that
// directory into one subdirectory per channel so each can be assembled
// separately.
func newOrganizeCmd() *cobra.Command {
	var opts organizeOpts

	cmd := &cobra.Command{
		Use:   "organize <src> <dst>",
		Short: "Group raw capture files into per-channel directories",
		Long: `Group the tile files in a capture directory by channel label.

Each file is moved into <dst>/<label>/ (or <dst>/main/ for the unlabeled
channel). Files that do not match the naming convention are left in place
and reported.

Examples:
  gridstitch organize /data/raw /data/sorted
  gridstitch organize --copy /data/raw /data/sorted`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrganize(cmd, &opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "filename convention: grid or sequential")
	cmd.Flags().IntVar(&opts.cols, "cols", 0, "column count (required for sequential naming)")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "copy files instead of moving them")

	return cmd
}

func runOrganize(cmd *cobra.Command, o *organizeOpts, src, dst string) error {
	logger := loggerFromContext(cmd.Context())
	parser := namingParser(o.pattern, o.cols)
	prog := newProgress(logger)

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("read source directory: %w", err)
	}

	moved := 0
	skipped := 0
	channels := make(map[string]int)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		_, label, ok := parser.Parse(name)
		if !ok {
			logger.Warn("skipping file with unparsable name", "file", name)
			skipped++
			continue
		}
		channel := label
		if channel == "" {
			channel = mainChannelDir
		}

		dir := filepath.Join(dst, channel)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create channel directory: %w", err)
		}
		from := filepath.Join(src, name)
		to := filepath.Join(dir, name)
		if o.copy {
			err = copyFile(from, to)
		} else {
			err = moveFile(from, to)
		}
		if err != nil {
			return fmt.Errorf("place %s: %w", name, err)
		}
		moved++
		channels[channel]++
	}

	if moved == 0 {
		printWarning("No tile files matched the naming convention")
		return nil
	}
	verb := "Moved"
	if o.copy {
		verb = "Copied"
	}
	prog.done(fmt.Sprintf("organized %d files", moved))
	printSuccess("%s %d files into %d channels", verb, moved, len(channels))
	for channel, n := range channels {
		printDetail("%s: %d files", channel, n)
	}
	if skipped > 0 {
		printDetail("%d files left in place", skipped)
	}
	return nil
}

// moveFile renames from to to, falling back to copy-and-remove across
// filesystems.
func moveFile(from, to string) error {
	if err := os.Rename(from, to); err == nil {
		return nil
	}
	if err := copyFile(from, to); err != nil {
		return err
	}
	return os.Remove(from)
}

func copyFile(from, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(to)
		return err
	}
	return out.Close()
}
