package main

import (
	"fmt"
	"os"

	"hesed/masav-batch/cmd/excel"
	"hesed/masav-batch/cmd/list"
	"hesed/masav-batch/cmd/masav"
	"hesed/masav-batch/cmd/root"
	"hesed/masav-batch/cmd/status"
	"hesed/masav-batch/cmd/summary"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(excel.Cmd)
	root.Cmd.AddCommand(masav.Cmd)
	root.Cmd.AddCommand(list.Cmd)
	root.Cmd.AddCommand(status.Cmd)
	root.Cmd.AddCommand(summary.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
