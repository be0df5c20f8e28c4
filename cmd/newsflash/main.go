package main

import (
	"os"

	"github.com/aydinmyilmaz/genai-newsflash/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
