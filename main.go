package main

import "github.com/mselser95/fpmm-quoter/cmd"

func main() {
	cmd.Execute()
}
