package telemetry

import "fmt"

// UnsupportedExporterError is returned for an exporter name that is not known.
type UnsupportedExporterError struct {
	Signal   string
	Exporter string
}

func (err UnsupportedExporterError) Error() string {
	return fmt.Sprintf("unsupported %s exporter %q, supported: %s, %s", err.Signal, err.Exporter, ExporterNone, ExporterConsole)
}
