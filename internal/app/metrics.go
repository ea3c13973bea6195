package app

import (
	"github.com/prometheus/client_golang/prometheus"
)

// writeMetrics dumps this run's counters in the node_exporter textfile
// format. Nothing is written when no path was given or nothing was wired.
func writeMetrics(path string) error {
	if path == "" || registry == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, registry)
}
