package main

import "github.com/oshokin/ssm-package/cmd/ssm-manifest/cmd"

func main() {
	cmd.Execute()
}
