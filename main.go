/*
Copyright © 2025 texneat contributors
*/
package main

import "github.com/texneat/texneat/cmd"

func main() {
	cmd.Execute()
}
