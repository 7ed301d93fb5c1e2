// Command flashd starts the HTTP server: -t worker reactors, -p listen
// port, -l access/error log path.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/flashd/flashd"
)

func main() {
	numReactors := flag.Int("t", 4, "number of worker reactors")
	port := flag.Int("p", 80, "listen port")
	logPath := flag.String("l", "./flashd.log", "log file path")
	flag.Parse()

	// A log path supplied on the command line must be absolute; the
	// default is left alone (original_source/WebServer/Main.cpp only
	// validates optarg, never the built-in default).
	if isFlagSet("l") && (len(*logPath) < 2 || (*logPath)[0] != '/') {
		fmt.Fprintln(os.Stderr, "logPath should start with \"/\"")
		os.Exit(1)
	}

	log, err := flashd.NewLogger(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flashd: open log: %v\n", err)
		os.Exit(1)
	}

	opts := flashd.Options{NumReactors: *numReactors, Port: *port, LogPath: *logPath}
	if err := flashd.Serve(opts, log); err != nil {
		fmt.Fprintf(os.Stderr, "flashd: %v\n", err)
		os.Exit(1)
	}
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
