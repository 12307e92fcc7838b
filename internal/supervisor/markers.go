package supervisor

import "github.com/moonbit-tools/moonbridge/internal/buildlog"

// Marker phrases matched by substring against the watch process's
// output. These depend on the exact wording of the external tool and
// will need updating if it changes; keeping them in one place limits
// the blast radius.
const watchingMarker = "Watching for changes"

var successMarkers = []string{
	"moon: ran",
	"Finished.",
}

func isErrorLine(line string) bool {
	return buildlog.IsErrorLine(line)
}
