package main

import "github.com/stashkv/stash/cmd"

func main() {
	cmd.Execute()
}
