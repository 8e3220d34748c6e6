package main

import (
	"os"

	apicmder "github.com/papercomputeco/quill/cmd/quill/serve/api"
)

func main() {
	cmd := apicmder.NewAPICmd()
	cmd.Use = "quillapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .quill/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
