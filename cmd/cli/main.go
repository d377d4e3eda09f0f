package main

import "github.com/zfogg/brandcast/internal/cli/cmd"

func main() {
	cmd.Execute()
}
