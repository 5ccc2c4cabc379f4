// Main entry point for the application
package main

import (
	"log"

	"fygallery/internal/ui"
)

func main() {
	log.SetPrefix("FyGallery ")

	ui.CreateApplication()
}
