package main

import "github.com/travatlanta/Sticky-sub003/internal/cmd"

func main() {
	cmd.Execute()
}
