package main

import "github.com/SharanBarfa/ERM-server/services/api-gateway/cli"

func main() {
	cli.Execute()
}
