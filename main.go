package main

import "github.com/theirongolddev/stashtrack/cmd"

func main() {
	cmd.Execute()
}
