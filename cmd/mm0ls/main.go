package main

import (
	"flag"
	"fmt"
	"os"

	"mm0ls/internal/server"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print the version of the program")
	logfileFlag := flag.String("logfile", "", "Path to log file (default stderr)")
	verboseFlag := flag.Int("verbose", 1, "Log verbosity, 0 silences logging")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("mm0ls language server version %s\n", server.Version)
		return
	}

	// Logging. Shared with glsp; stdout carries the protocol.
	var logfile *string
	if *logfileFlag != "" {
		logfile = logfileFlag
	}
	commonlog.Configure(*verboseFlag, logfile)
	log := commonlog.GetLogger("mm0ls")
	log.Info("starting mm0ls language server", "version", server.Version)

	srv, err := server.NewServer()
	if err != nil {
		log.Criticalf("failed to create server: %s", err)
		os.Exit(1)
	}

	if err := srv.RunStdio(); err != nil {
		log.Criticalf("server error: %s", err)
		os.Exit(1)
	}
}
