package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
)

// inspect dumps raw ledger keys from a chatline database. Useful for
// poking at a live data dir when debugging conversation ordering or
// index drift.
func main() {
	var dbPath string
	var prefix string
	var keysOnly bool
	flag.StringVar(&dbPath, "db", "./.database/store", "pebble store path")
	flag.StringVar(&prefix, "prefix", "", "only dump keys with this prefix (e.g. convo:, msg:, user:)")
	flag.BoolVar(&keysOnly, "keys", false, "print keys only, skip values")
	flag.Parse()

	db, err := pebble.Open(dbPath, &pebble.Options{ReadOnly: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open pebble at %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer db.Close()

	var opts *pebble.IterOptions
	if prefix != "" {
		upper := append([]byte(prefix), 0xff)
		opts = &pebble.IterOptions{LowerBound: []byte(prefix), UpperBound: upper}
	}
	iter, err := db.NewIter(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create iterator: %v\n", err)
		os.Exit(1)
	}
	defer iter.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		if keysOnly {
			fmt.Println(string(iter.Key()))
		} else {
			fmt.Printf("%s\t%s\n", iter.Key(), iter.Value())
		}
		n++
	}
	fmt.Fprintf(os.Stderr, "%d keys\n", n)
}
