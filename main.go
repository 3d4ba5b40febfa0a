// Package main is the entry point for the ajp13gw backend proxy.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/ajp13gw/cmd"
	_ "firestige.xyz/ajp13gw/plugins" // 触发所有内置插件 init() 注册
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
