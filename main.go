package main

import "fdeconsole/cmd"

func main() {
	cmd.Execute()
}
