package main

import "github.com/elliotlrichardson/airsync/cmd/airsync/cmd"

func main() {
	cmd.Execute()
}
