package main

import "github.com/Xushengqwer/identity_link/cmd/linkctl/cmd"

func main() {
	cmd.Execute()
}
