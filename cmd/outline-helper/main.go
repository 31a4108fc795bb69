// Command outline-helper draws a colored outline around the primary display.
// It is started by the skydesk daemon, reads JSON update lines from stdin and
// exits when stdin closes.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/skygen/skydesk/internal/outline"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: outline-helper --color C [--width N] [--blur N]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Reads update lines such as {\"color\":\"#00FF00\",\"width\":6} from stdin.")
	fmt.Fprintln(w, "Blur is accepted for compatibility and has no visible effect on X11.")
}

// drawer renders the outline for the current options.
type drawer interface {
	Draw(opts outline.StartOptions) error
	Close()
}

func main() {
	log.SetPrefix("outline-helper: ")
	log.SetFlags(0)

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help") {
		printUsage(os.Stdout)
		os.Exit(0)
	}

	opts, err := outline.ParseArgs(os.Args[1:])
	if err != nil {
		log.Print(err)
		printUsage(os.Stderr)
		os.Exit(2)
	}

	d, err := newDrawer()
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	if err := run(d, opts, os.Stdin); err != nil {
		d.Close()
		log.Fatal(err)
	}
}

// run draws opts, then applies each update read from r until EOF. Malformed
// lines are logged and skipped.
func run(d drawer, opts outline.StartOptions, r io.Reader) error {
	if err := d.Draw(opts); err != nil {
		return err
	}

	dec := outline.NewDecoder(r)
	for {
		u, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if errors.Is(err, outline.ErrMalformedUpdate) {
				log.Print(err)
				continue
			}
			return err
		}
		if u.Empty() {
			continue
		}
		next := u.Apply(opts)
		if err := d.Draw(next); err != nil {
			log.Print(err)
			continue
		}
		opts = next
	}
}
