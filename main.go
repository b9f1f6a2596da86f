package main

import "stock-mirror/cmd"

func main() {
	cmd.Execute()
}
