package telemetry

// Options selects the exporters. Empty or "none" disables the corresponding signal.
type Options struct {
	TraceExporter  string
	MetricExporter string
}

const (
	ExporterNone    = "none"
	ExporterConsole = "console"
)
