package main

import "github.com/mholecek/snapmatch/cmd"

func main() {
	cmd.Execute()
}
