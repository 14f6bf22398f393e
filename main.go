package main

import "github.com/Honar-Abdi/Order-to-Insight/cmd"

func main() {
	cmd.Execute()
}
