package main

import "github.com/jfmyers9/scrobblegrid/cmd"

func main() {
	cmd.Execute()
}
