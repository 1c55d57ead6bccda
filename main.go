package main

import "github.com/jsphweid/scoretrack/cmd"

func main() {
	cmd.Execute()
}
