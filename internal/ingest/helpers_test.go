package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/yndnr/starledger/internal/core/domain"
)

// writeArchive writes a zip archive with the given members.
func writeArchive(t *testing.T, path string, members map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

// gamestate renders a game state with countries 0..countries-1.
func gamestate(countries int) string {
	var b strings.Builder
	b.WriteString("version=\"Circinus v3.0.3\"\n")
	b.WriteString("player={ { name=\"alice\" country=0 } }\n")
	b.WriteString("country={\n")
	for i := 0; i < countries; i++ {
		fmt.Fprintf(&b, "\t%d={ name=\"Empire %d\" type=\"default\" military_power=%d }\n", i, i, 100*(i+1))
	}
	b.WriteString("}\n")
	return b.String()
}

func metaMember(date domain.GameDate) string {
	return fmt.Sprintf("version=\"Circinus v3.0.3\"\nname=\"Test Game\"\ndate=\"%s\"\n", date)
}

// writeSave writes a save of session dated date with the given number of
// countries and returns its path.
func writeSave(t *testing.T, saveDir, session, name string, date domain.GameDate, countries int) string {
	t.Helper()
	path := filepath.Join(saveDir, session, name)
	writeArchive(t, path, map[string]string{
		MemberMeta:      metaMember(date),
		MemberGamestate: gamestate(countries),
	})
	return path
}

func month(m int) domain.GameDate {
	return domain.NewGameDate(2200+(m-1)/12, (m-1)%12+1, 1)
}
