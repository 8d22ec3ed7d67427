package main

import "github.com/hayan-web/health-auto-blog-sub000/cmd"

func main() {
	cmd.Main()
}
