package main

import "credit-sales/cmd"

func main() {
	cmd.Execute()
}
