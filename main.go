package main

import "github.com/Onnokh/bookr/cmd"

func main() {
	cmd.Execute()
}
