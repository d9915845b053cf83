package main

import "github.com/chesterfieldhockey/scoutdata/internal/cli"

func main() {
	cli.ExecuteRefresh()
}
