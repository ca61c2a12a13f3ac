// cmd/main.go is the application entry point.
// All wiring lives in internal/cli.
package main

import "github.com/Shivanand-hulikatti/coursedesk/internal/cli"

func main() {
	cli.Execute()
}
