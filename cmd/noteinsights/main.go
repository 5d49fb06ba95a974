package main

import "github.com/botirk38/noteinsights/cmd/noteinsights/cmd"

func main() {
	cmd.Execute()
}
