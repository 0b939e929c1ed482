package main

import "github.com/tacit/wm/cmd"

func main() {
	cmd.Execute()
}
