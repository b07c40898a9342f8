package main

import "github.com/KaramelBytes/statsketch/cmd"

func main() {
	cmd.Execute()
}
