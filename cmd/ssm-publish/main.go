package main

import "github.com/oshokin/ssm-package/cmd/ssm-publish/cmd"

func main() {
	cmd.Execute()
}
