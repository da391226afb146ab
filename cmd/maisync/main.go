package main

import (
	"context"

	"maisync/cmd/maisync/commands"

	_ "time/tzdata"
)

func main() {
	commands.ExecuteContext(context.Background())
}
