package main

import "editorial_composer/cmd"

func main() {
	cmd.Execute()
}
