package main

import "github.com/openmeethq/codegate/cmd"

func main() {
	cmd.Execute()
}
