package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName checks that a shell name is safe for use as a filename.
// Names may not be empty or contain path separators or dots.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
