package main

import "league-orchestrator/cmd"

func main() {
	cmd.Execute()
}
