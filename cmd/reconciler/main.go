package main

import "github.com/SharanBarfa/ERM-server/services/reconciler/cli"

func main() {
	cli.Execute()
}
