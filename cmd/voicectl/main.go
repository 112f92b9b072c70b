package main

import "os"

func main() {
	r := newRunner(os.Stdin, os.Stdout, os.Stderr)
	os.Exit(r.run(os.Args[1:]))
}
