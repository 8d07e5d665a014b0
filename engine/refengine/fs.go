package refengine

import "os"

// readPath reads a stylesheet directly from the filesystem, used both for
// PathInput compilations and for importers that resolve against a base
// path without host involvement (spec §6.1, "filesystem importers are
// constructed directly from a base path").
func readPath(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
