package main

import "milkbook/process/sanitize"

func main() {
	sanitize.Run()
}
