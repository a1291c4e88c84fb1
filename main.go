package main

import "github.com/elyxhealth/concierge/cmd"

func main() {
	cmd.Execute()
}
