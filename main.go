package main

import "github.com/mj1618/press-monkey/cmd"

func main() {
	cmd.Execute()
}
