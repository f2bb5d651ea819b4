package main

import "github.com/kaushalya4s5s7/Axiom/cmd"

func main() {
	cmd.Execute()
}
