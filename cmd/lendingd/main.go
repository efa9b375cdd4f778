// Command lendingd runs the library lending service and its maintenance tasks.
//
//	lendingd serve              start the HTTP server
//	lendingd migrate            create the events and users tables
//	lendingd user add           register a user, e.g. the first admin
//	lendingd token issue        print a bearer token for a user
//	lendingd seed               add demo books
//
// Configuration comes from the environment and an optional .env file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
