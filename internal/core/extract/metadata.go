package extract

import (
	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/pkg/savefmt"
)

// Metadata is the content of an archive's metadata member.
type Metadata struct {
	Date    domain.GameDate
	Name    string
	Version string
}

// ReadMetadata reads the date, game name and version from a parsed
// metadata document. A missing or unparsable date is an error: the file
// cannot be ordered without it.
func ReadMetadata(root savefmt.Value) (Metadata, error) {
	raw := root.Get("date")
	date, ok := dateOf(raw)
	if !ok {
		if !raw.IsValid() {
			return Metadata{}, domain.ErrMissingDate.WithDetails("no date key")
		}
		return Metadata{}, domain.ErrMissingDate.WithDetailsf("date %q", raw.Text())
	}
	return Metadata{
		Date:    date,
		Name:    stringOf(root.Get("name"), ""),
		Version: stringOf(root.Get("version"), ""),
	}, nil
}
