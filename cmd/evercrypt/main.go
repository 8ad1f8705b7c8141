package main

import "github.com/goplus/evercrypt/cmd/evercrypt/internal"

func main() {
	internal.Execute()
}
