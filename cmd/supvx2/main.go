package main

import "github.com/vortex-fintech/supvx2/cmd/supvx2/cmd"

func main() {
	cmd.Execute()
}
