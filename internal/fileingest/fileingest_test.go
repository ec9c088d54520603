package fileingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketclassifier/pkg/categorizer"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadTicket_Success(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ticket.txt", "  Sample support ticket text.\n")
	ticket, err := LoadTicket(path)
	require.NoError(t, err)
	assert.Equal(t, categorizer.Ticket("  Sample support ticket text.\n"), ticket)
}

func TestLoadTicket_ByteExact(t *testing.T) {
	body := "Error “E42” — can’t log in…\u00a0see below\r\nSecond line"
	path := writeFile(t, t.TempDir(), "ticket.txt", body)

	ticket, err := LoadTicket(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(ticket))

	withBOM := writeFile(t, t.TempDir(), "bom.txt", "\xEF\xBB\xBF"+body)
	ticket, err = LoadTicket(withBOM)
	require.NoError(t, err)
	assert.Equal(t, body, string(ticket))
}

func TestLoadTicket_Failures(t *testing.T) {
	dir := t.TempDir()
	testCases := []struct {
		name string
		path string
	}{
		{"Not found", filepath.Join(dir, "no_ticket.txt")},
		{"Empty file", writeFile(t, dir, "empty.txt", "")},
		{"Whitespace only", writeFile(t, dir, "blank.txt", " \n\t \r\n")},
		{"Binary", writeFile(t, dir, "blob.bin", "abc\x00def")},
		{"Invalid UTF-8", writeFile(t, dir, "latin1.txt", "caf\xe9")},
		{"Directory", dir},
		{"Empty path", ""},
		{"Empty HTML", writeFile(t, dir, "empty.html", "<html><body><script>x()</script></body></html>")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadTicket(tc.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, categorizer.ErrDataLoad)
		})
	}
}

func TestLoadTicket_HTML(t *testing.T) {
	body := `<html><head><title>T-1</title></head><body><h1>Login broken</h1>` +
		`<p>Clicking <b>Sign in</b>   does nothing.</p><script>alert(1)</script></body></html>`
	path := writeFile(t, t.TempDir(), "ticket.html", body)

	ticket, err := LoadTicket(path)
	require.NoError(t, err)
	assert.Equal(t, categorizer.Ticket("Login broken\nClicking Sign in does nothing."), ticket)
}

func TestLoadTicket_SniffsHTMLWithoutExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ticket.txt", "<div>Printer&nbsp;jammed</div>")
	ticket, err := LoadTicket(path)
	require.NoError(t, err)
	assert.Equal(t, categorizer.Ticket("Printer jammed"), ticket)
}

func TestLoadCategories_Success(t *testing.T) {
	path := writeFile(t, t.TempDir(), "categories.json",
		`{"Issue Type": ["Bug", "Feature"], "Priority": ["High", "Low"]}`)

	taxonomy, err := LoadCategories(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Issue Type", "Priority"}, taxonomy.Names())
	for _, c := range taxonomy.Categories() {
		assert.NotEmpty(t, c.Subcategories)
	}
}

func TestLoadCategories_OriginalArrayFormat(t *testing.T) {
	data := []map[string]interface{}{
		{"value": "Issue Type", "subcategories": []map[string]string{{"value": "Bug"}}},
	}
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	path := writeFile(t, t.TempDir(), "categories.json", string(raw))

	taxonomy, err := LoadCategories(path)
	require.NoError(t, err)
	assert.True(t, taxonomy.HasSubcategory("Issue Type", "Bug"))
}

func TestLoadCategories_Failures(t *testing.T) {
	dir := t.TempDir()
	testCases := []struct {
		name string
		path string
	}{
		{"Not found", filepath.Join(dir, "no_categories.json")},
		{"Invalid JSON", writeFile(t, dir, "bad.json", "{ invalid json }")},
		{"Wrong structure", writeFile(t, dir, "wrong.json", `{"Priority": {"High": 1}}`)},
		{"Empty subcategories", writeFile(t, dir, "empty_subs.json", `[{"value": "Priority", "subcategories": []}]`)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadCategories(tc.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, categorizer.ErrDataLoad)
		})
	}
}

func TestLoadData(t *testing.T) {
	dir := t.TempDir()
	ticketPath := writeFile(t, dir, "ticket.txt", "Another support ticket.")
	categoriesPath := writeFile(t, dir, "categories.json", `{"Priority": ["High"]}`)

	ticket, taxonomy, err := LoadData(ticketPath, categoriesPath)
	require.NoError(t, err)
	assert.Equal(t, categorizer.Ticket("Another support ticket."), ticket)
	assert.Equal(t, 1, taxonomy.Len())

	_, _, err = LoadData(filepath.Join(dir, "no_ticket.txt"), categoriesPath)
	var dle *categorizer.DataLoadError
	require.ErrorAs(t, err, &dle)
	assert.Contains(t, dle.Path, "no_ticket.txt")

	_, _, err = LoadData(ticketPath, filepath.Join(dir, "no_categories.json"))
	require.ErrorAs(t, err, &dle)
	assert.Contains(t, dle.Path, "no_categories.json")
}
