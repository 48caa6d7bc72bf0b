package layer

// Standard priority levels for override layers.
// Higher values are applied later and win.
const (
	// PriorityFile is for --settings-file overrides.
	PriorityFile = 100

	// PriorityEnv is for environment variable overrides.
	PriorityEnv = 500

	// PriorityArgs is for command-line -s overrides.
	PriorityArgs = 600

	// PriorityPort is for settings implied by selected ports.
	PriorityPort = 800
)

// DefaultPriority returns the default priority for a given source.
func DefaultPriority(source Source) int {
	switch source {
	case SourceFile:
		return PriorityFile
	case SourceEnv:
		return PriorityEnv
	case SourceArgs:
		return PriorityArgs
	case SourcePort:
		return PriorityPort
	default:
		return PriorityFile
	}
}

// StandardLayerNames defines standard names for override layers.
var StandardLayerNames = map[Source]string{
	SourceFile: "file",
	SourceEnv:  "environment",
	SourceArgs: "arguments",
	SourcePort: "ports",
}

// StandardLayerName returns the standard name for a source.
func StandardLayerName(source Source) string {
	if name, ok := StandardLayerNames[source]; ok {
		return name
	}
	return "unknown"
}
