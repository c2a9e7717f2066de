// Command ncbroker renders NETCONF transaction rpcs and runs scripted transactions against a
// simulated device.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
