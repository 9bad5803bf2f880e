package main

import "github.com/SharanBarfa/ERM-server/services/activity-logger/cli"

func main() {
	cli.Execute()
}
