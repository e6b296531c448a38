package main

import "wpcompare/cli"

func main() {
	cli.Execute()
}
