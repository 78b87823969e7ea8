package main

import "github.com/dbsmedya/gmlstats/cmd/gmlstats/cmd"

func main() {
	cmd.Execute()
}
