package main

import "github.com/dokterku/clinic-finance/cmd"

func main() {
	cmd.Execute()
}
