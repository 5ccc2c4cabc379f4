package main

import (
	"fygallery/internal/ui"
)

func main() {

	ui.CreateApplication()
}
