// Package main is the entry point for the extractify binary.
package main

import "github.com/thecodingpenguins/extractify/cmd"

func main() {
	cmd.Execute()
}
