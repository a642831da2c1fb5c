package main

import "github.com/liquidos-ai/medcluster/cmd"

func main() {
	cmd.Execute()
}
