package main

import "github.com/dmitrymomot/keygate/cmd/keygate/cmd"

func main() {
	cmd.Execute()
}
