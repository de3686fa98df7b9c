package topology

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a malformed or incomplete declaration. It is
// raised before any engine is contacted.
type ConfigurationError struct {
	Stack    string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("stack %s: %s", e.Stack, e.Problems[0])
	}

	return fmt.Sprintf("stack %s: %d configuration problems: %s", e.Stack, len(e.Problems), strings.Join(e.Problems, "; "))
}
