package main

import "github.com/kailas-cloud/policyqa/internal/cli"

func main() {
	cli.Execute()
}
