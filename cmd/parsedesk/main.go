// Package main is the entry point for the parsedesk CLI.
package main

func main() {
	Execute()
}
