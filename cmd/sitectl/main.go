package main

import "github.com/dgnsrekt/site_gateway/internal/cli"

func main() {
	cli.Execute()
}
