package domainset

import (
	"enricher/pkg/serrors"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Load reads the JSON domain list at path. The document must be an array.
// String elements are returned as string; any other element is returned as
// its raw JSON text (jx.Raw) so that Build can report and skip it.
func Load(path string) ([]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read domain list %q", path)
	}

	return Decode(b)
}

// Decode parses a JSON domain list. See Load.
func Decode(b []byte) ([]any, error) {
	// Validate rejects trailing data, which Arr alone would ignore.
	if err := jx.DecodeBytes(b).Validate(); err != nil {
		return nil, serrors.Wrap(serrors.ErrInvalidInput, err, "malformed domain list")
	}

	d := jx.DecodeBytes(b)
	if d.Next() != jx.Array {
		return nil, serrors.With(serrors.ErrInvalidInput, "domain list must be a JSON array, got %s", d.Next())
	}

	out := []any{}
	err := d.Arr(func(d *jx.Decoder) error {
		if d.Next() == jx.String {
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "string element")
			}
			out = append(out, s)

			return nil
		}

		raw, err := d.Raw()
		if err != nil {
			return errors.Wrap(err, "raw element")
		}
		// Raw aliases the input buffer.
		out = append(out, jx.Raw(append([]byte(nil), raw...)))

		return nil
	})
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrInvalidInput, err, "malformed domain list")
	}

	return out, nil
}
