//go:build !android

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/richinsley/gooverlay/options"
)

func init() {
	// GLFW and the GL context belong to the main thread
	runtime.LockOSThread()
}

func main() {
	opts, err := options.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	if *opts.Help {
		fmt.Println("Video overlay compositor")
		flag.PrintDefaults()
		return
	}
	if *opts.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	if err := opts.Validate(); err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	if err := run(opts); err != nil {
		log.Fatalf("Compositing failed: %v", err)
	}
}
