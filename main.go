package main

import "github.com/vcubone/library-boot/cmd"

func main() {
	cmd.Execute()
}
