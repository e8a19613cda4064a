package main

import (
	"os"

	"persona-chat/internal/app"
)

func main() {
	os.Exit(app.Run())
}
