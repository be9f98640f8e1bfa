// Command batteryctl reads the smart-battery controller from a Linux host
// and can serve its telemetry over the HAL bus and Prometheus.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
