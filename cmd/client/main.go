// Package main is the interactive command-line client of the task tracker.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/atinyakov/TaskTracker/internal/client"
)

var (
	version   string
	buildDate string
)

// main parses command-line flags, resumes a saved session if it belongs to
// the same server, and starts the shell.
func main() {
	var (
		baseURL     string
		sessionPath string
		showVer     bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&sessionPath, "session", ".tasks-session.json", "path to the saved session")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("TaskTracker Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sf := client.SessionFile{Path: sessionPath}
	saved, err := sf.Load()
	if err != nil {
		log.Fatalf("load session: %v", err)
	}

	c := client.New(baseURL, nil)
	if saved.Token != "" && saved.BaseURL == baseURL {
		c.SetToken(saved.Token)
		fmt.Printf("Resumed session for %s\n", saved.Email)
	} else {
		fmt.Println("Not logged in. Type 'register' or 'login', or 'help' for all commands.")
	}

	sh := &client.Shell{
		Client:  c,
		Session: sf,
		BaseURL: baseURL,
		In:      bufio.NewReader(os.Stdin),
		Out:     os.Stdout,
	}
	if err := sh.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
