package main

import "github.com/ValentinKolb/kvcache/cmd"

func main() {
	cmd.Execute()
}
