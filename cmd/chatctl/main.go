// Package main 是 chatctl 命令行客户端的入口
package main

import "edu-chatbot/internal/cli"

func main() {
	cli.Execute()
}
