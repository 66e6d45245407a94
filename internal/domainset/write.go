package domainset

import (
	"bytes"

	"github.com/go-faster/errors"
	"github.com/google/renameio/v2"
)

// WriteResults writes one domain per line to path, replacing any previous
// content. The file is replaced atomically, so an interrupted write never
// leaves a truncated file.
func WriteResults(path string, domains []string) error {
	var buf bytes.Buffer
	for _, d := range domains {
		buf.WriteString(d)
		buf.WriteByte('\n')
	}

	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write results to %q", path)
	}

	return nil
}
