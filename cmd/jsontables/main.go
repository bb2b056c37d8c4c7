package main

import "github.com/dbsmedya/jsontables/cmd/jsontables/cmd"

func main() {
	cmd.Execute()
}
