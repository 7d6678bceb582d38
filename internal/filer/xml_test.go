package filer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/serum-errors/go-serum"

	"github.com/zot/oak/internal/oakerr"
)

func writeTestDoc(t *testing.T, doc Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "component.xml")
	if err := WriteDocument(path, doc); err != nil {
		t.Fatalf("WriteDocument failed: %v", err)
	}
	return path
}

// TestMissingFile verifies construction fails for a nonexistent path.
func TestMissingFile(t *testing.T) {
	_, err := NewComponent(filepath.Join(t.TempDir(), "nope.xml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if serum.Code(err) != oakerr.CodeMissingFile {
		t.Errorf("Expected %s, got %s", oakerr.CodeMissingFile, serum.Code(err))
	}
}

// TestDocumentRoundTrip verifies a document loads back equal, modulo
// the owned name synthesis.
func TestDocumentRoundTrip(t *testing.T) {
	doc := Document{
		Mine: Props{"name": "root", "classname": "oak.Component", "title": "Home"},
		Owned: map[string]Props{
			"child1": {"name": "child1", "classname": "oak.Component", "color": "red"},
		},
	}
	path := writeTestDoc(t, doc)

	f, err := NewComponent(path)
	if err != nil {
		t.Fatalf("NewComponent failed: %v", err)
	}
	loaded, err := f.LoadDocument()
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}

	if diff := cmp.Diff(doc.Mine, loaded.Mine); diff != "" {
		t.Errorf("Mine mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(doc.Owned, loaded.Owned); diff != "" {
		t.Errorf("Owned mismatch (-want +got):\n%s", diff)
	}
}

// TestOwnedNameSynthesis verifies the child's name key is not written
// to disk but is synthesized back on read.
func TestOwnedNameSynthesis(t *testing.T) {
	path := writeTestDoc(t, Document{
		Mine: Props{"name": "root"},
		Owned: map[string]Props{
			"child1": {"name": "child1", "classname": "oak.Component"},
		},
	})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `<owned name="child1">`) {
		t.Errorf("Expected owned tag attribute, got:\n%s", text)
	}
	if strings.Contains(text, `<prop name="name" value="child1"`) {
		t.Errorf("Owned entry serialized its name property:\n%s", text)
	}

	f, _ := NewComponent(path)
	loaded, err := f.LoadDocument()
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if loaded.Owned["child1"]["name"] != "child1" {
		t.Error("Expected name to be synthesized into the owned entry")
	}
}

// TestReservedAndEmptyOmitted verifies reserved keys and empty values
// never reach the document.
func TestReservedAndEmptyOmitted(t *testing.T) {
	path := writeTestDoc(t, Document{
		Mine: Props{
			"name":  "root",
			"blank": "",
			KeyFile: "/tmp/somewhere.xml",
			KeyType: "oak.Component",
		},
	})

	data, _ := os.ReadFile(path)
	text := string(data)
	if strings.Contains(text, KeyFile) || strings.Contains(text, KeyType) {
		t.Errorf("Reserved keys leaked into the document:\n%s", text)
	}
	if strings.Contains(text, "blank") {
		t.Errorf("Empty-valued property was serialized:\n%s", text)
	}

	f, _ := NewComponent(path)
	loaded, err := f.LoadDocument()
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if _, ok := loaded.Mine["blank"]; ok {
		t.Error("Absent and empty must be equivalent after a round trip")
	}
}

// TestDeterministicOutput verifies storing the same document twice
// produces byte-identical files.
func TestDeterministicOutput(t *testing.T) {
	doc := Document{
		Mine: Props{"name": "root", "zeta": "1", "alpha": "2"},
		Owned: map[string]Props{
			"b": {"name": "b", "classname": "oak.Component"},
			"a": {"name": "a", "classname": "oak.Component"},
		},
	}
	path := writeTestDoc(t, doc)
	first, _ := os.ReadFile(path)

	f, _ := NewComponent(path)
	if err := f.StoreDocument(doc); err != nil {
		t.Fatalf("StoreDocument failed: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Errorf("Output not deterministic:\n%s\n----\n%s", first, second)
	}
}

// TestMalformedDocument verifies unparseable XML fails with the read
// error code.
func TestMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xml")
	if err := os.WriteFile(path, []byte("<oak-component><prop"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := NewComponent(path)
	if err != nil {
		t.Fatalf("NewComponent failed: %v", err)
	}
	_, err = f.LoadDocument()
	if err == nil {
		t.Fatal("Expected error for malformed XML")
	}
	if serum.Code(err) != oakerr.CodeReadingXML {
		t.Errorf("Expected %s, got %s", oakerr.CodeReadingXML, serum.Code(err))
	}
}

// TestNarrowLoadSubset verifies the Filer-interface Load returns the
// requested subset of the top level's own properties.
func TestNarrowLoadSubset(t *testing.T) {
	path := writeTestDoc(t, Document{
		Mine:  Props{"name": "root", "title": "Home", "color": "green"},
		Owned: map[string]Props{"kid": {"name": "kid", "classname": "oak.Component"}},
	})

	f, _ := NewComponent(path)
	props, err := f.Load("title")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(props) != 1 || props["title"] != "Home" {
		t.Errorf("Unexpected subset: %v", props)
	}
}

// TestNarrowStoreRejected verifies partial stores are refused.
func TestNarrowStoreRejected(t *testing.T) {
	path := writeTestDoc(t, Document{Mine: Props{"name": "root"}})

	f, _ := NewComponent(path)
	err := f.Store(Props{"title": "partial"})
	if err == nil {
		t.Fatal("Expected partial store to fail")
	}
	if serum.Code(err) != oakerr.CodeWritingXML {
		t.Errorf("Expected %s, got %s", oakerr.CodeWritingXML, serum.Code(err))
	}
}
