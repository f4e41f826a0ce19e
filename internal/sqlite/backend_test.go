// Tests for the SQLite backend.
package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

func testConfig(dir string) types.Config {
	return types.Config{
		Backend:       types.BackendSQLite,
		DataDir:       dir,
		FieldID:       types.DefaultFieldID,
		DefaultLocale: types.DefaultLocale,
	}
}

func attached(t *testing.T, dir string) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(dir)))
	t.Cleanup(func() { b.Detach() })
	return b
}

func mustRecord(t *testing.T, id, contentType, title string) *types.Record {
	t.Helper()
	r, err := types.NewRecord(id, contentType, map[string]map[string]any{
		"title": {"en-US": title},
	})
	require.NoError(t, err)
	return r
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()
	b := NewBackend()

	require.NoError(t, b.Attach(testConfig(tmpDir)))
	assert.FileExists(t, filepath.Join(tmpDir, dbFileName))
	for _, name := range []string{recordsFile, contentTypesFile, fieldValuesFile} {
		assert.FileExists(t, filepath.Join(tmpDir, name))
	}

	assert.ErrorIs(t, b.Attach(testConfig(tmpDir)), types.ErrAlreadyAttached)
	require.NoError(t, b.Detach())
}

func TestBackend_AttachRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Backend = "postgres"
	assert.ErrorIs(t, NewBackend().Attach(cfg), types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(t.TempDir())))

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "second Detach should not error")

	_, err := b.GetRecord("x")
	assert.ErrorIs(t, err, types.ErrDetached)
	_, err = b.FetchContentTypes()
	assert.ErrorIs(t, err, types.ErrDetached)
	assert.ErrorIs(t, b.SetFieldValue("link", nil), types.ErrDetached)
}

func TestRecords_CRUD(t *testing.T) {
	b := attached(t, t.TempDir())

	id, err := b.SetRecord(mustRecord(t, "rec-1", "article", "Hello"))
	require.NoError(t, err)
	assert.Equal(t, "rec-1", id)

	got, err := b.GetRecord("rec-1")
	require.NoError(t, err)
	title, ok := got.Field("title", "en-US")
	assert.True(t, ok)
	assert.Equal(t, "Hello", title)

	// Replace.
	_, err = b.SetRecord(mustRecord(t, "rec-1", "article", "Updated"))
	require.NoError(t, err)
	got, err = b.GetRecord("rec-1")
	require.NoError(t, err)
	title, _ = got.Field("title", "en-US")
	assert.Equal(t, "Updated", title)

	// Generated ID.
	genID, err := b.SetRecord(mustRecord(t, "", "page", "Home"))
	require.NoError(t, err)
	assert.NotEmpty(t, genID)
	got, err = b.GetRecord(genID)
	require.NoError(t, err)
	assert.Equal(t, genID, got.ID())

	all, err := b.FetchRecords("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	pages, err := b.FetchRecords("page")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, genID, pages[0].ID())

	require.NoError(t, b.DeleteRecord("rec-1"))
	_, err = b.GetRecord("rec-1")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, b.DeleteRecord("rec-1"), types.ErrNotFound)
}

func TestRecords_Errors(t *testing.T) {
	b := attached(t, t.TempDir())

	_, err := b.GetRecord("")
	assert.ErrorIs(t, err, types.ErrInvalidID)
	_, err = b.SetRecord(nil)
	assert.ErrorIs(t, err, types.ErrInvalidRecord)

	noType, err := types.ParseRecord([]byte(`{"sys":{"id":"x"}}`))
	require.NoError(t, err)
	_, err = b.SetRecord(noType)
	assert.ErrorIs(t, err, types.ErrInvalidRecord)
}

func TestContentTypes_CRUD(t *testing.T) {
	b := attached(t, t.TempDir())

	id, err := b.SetContentType(&types.ContentType{ID: "article", Name: "Article", DisplayField: "title"})
	require.NoError(t, err)
	assert.Equal(t, "article", id)

	ct, err := b.GetContentType("article")
	require.NoError(t, err)
	assert.Equal(t, &types.ContentType{ID: "article", Name: "Article", DisplayField: "title"}, ct)

	genID, err := b.SetContentType(&types.ContentType{Name: "Page", DisplayField: "heading"})
	require.NoError(t, err)
	assert.NotEmpty(t, genID)

	all, err := b.FetchContentTypes()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = b.GetContentType("missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.SetContentType(&types.ContentType{ID: "nameless"})
	assert.ErrorIs(t, err, types.ErrInvalidContentType)
}

func TestFieldValues(t *testing.T) {
	b := attached(t, t.TempDir())

	v, err := b.GetFieldValue("link")
	require.NoError(t, err)
	assert.Nil(t, v, "never written field is unset")

	require.NoError(t, b.SetFieldValue("link", types.NewExternal("")))
	v, err = b.GetFieldValue("link")
	require.NoError(t, err)
	assert.Equal(t, types.NewExternal(""), v)

	rec := mustRecord(t, "rec-1", "article", "Hello")
	require.NoError(t, b.SetFieldValue("link", types.NewInternal(rec)))
	v, err = b.GetFieldValue("link")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", v.TargetID())
	assert.JSONEq(t, string(rec.Bytes()), string(v.Entry.Bytes()))

	require.NoError(t, b.SetFieldValue("link", nil))
	v, err = b.GetFieldValue("link")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = b.GetFieldValue("")
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestFieldValues_RejectsInvalidShape(t *testing.T) {
	b := attached(t, t.TempDir())

	noID, err := types.ParseRecord([]byte(`{"sys":{"type":"Entry"}}`))
	require.NoError(t, err)

	err = b.SetFieldValue("link", types.NewInternal(noID))
	assert.ErrorIs(t, err, types.ErrInvalidValue)

	v, err := b.GetFieldValue("link")
	require.NoError(t, err)
	assert.Nil(t, v, "rejected value is not stored")
}

func TestFieldValues_Subscribe(t *testing.T) {
	b := attached(t, t.TempDir())

	var got []*types.FieldValue
	unsubscribe := b.Subscribe("link", func(v *types.FieldValue) { got = append(got, v) })

	var other int
	b.Subscribe("other", func(*types.FieldValue) { other++ })

	require.NoError(t, b.SetFieldValue("link", types.NewExternal("https://a.example")))
	require.NoError(t, b.SetFieldValue("link", nil))
	require.Len(t, got, 2)
	assert.Equal(t, "https://a.example", got[0].URL)
	assert.Nil(t, got[1])
	assert.Zero(t, other)

	unsubscribe()
	unsubscribe()
	require.NoError(t, b.SetFieldValue("link", types.NewExternal("")))
	assert.Len(t, got, 2)
}

func TestBackend_PersistsAcrossAttach(t *testing.T) {
	dir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(dir)))
	_, err := b.SetContentType(&types.ContentType{ID: "article", Name: "Article", DisplayField: "title"})
	require.NoError(t, err)
	rec := mustRecord(t, "rec-1", "article", "Hello")
	_, err = b.SetRecord(rec)
	require.NoError(t, err)
	require.NoError(t, b.SetFieldValue("link", types.NewInternal(rec)))
	require.NoError(t, b.SetFieldValue("other", types.NewExternal("https://b.example")))
	require.NoError(t, b.Detach())

	b2 := attached(t, dir)
	ct, err := b2.GetContentType("article")
	require.NoError(t, err)
	assert.Equal(t, "Article", ct.Name)

	got, err := b2.GetRecord("rec-1")
	require.NoError(t, err)
	assert.Equal(t, "article", got.ContentTypeID())

	v, err := b2.GetFieldValue("link")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", v.TargetID())

	v, err = b2.GetFieldValue("other")
	require.NoError(t, err)
	assert.Equal(t, types.NewExternal("https://b.example"), v)
}

func TestBackend_LoadSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()

	writeFile := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	writeFile(recordsFile, `{"sys":{"id":"ok","contentType":{"sys":{"id":"article"}}}}
not json
{"sys":{"type":"Entry"}}
[1,2,3]
`)
	writeFile(contentTypesFile, `{"id":"article","name":"Article","displayField":"title"}
{"id":"broken"}
`)
	writeFile(fieldValuesFile, `{"field_id":"good","value":{"linkType":"external","url":"x"},"updated_at":"2026-01-01T00:00:00Z"}
{"field_id":"bad","value":{"linkType":"external","url":"x","entry":null},"updated_at":"2026-01-01T00:00:00Z"}
{"field_id":"unset","value":null,"updated_at":"2026-01-01T00:00:00Z"}
`)

	b := attached(t, dir)

	recs, err := b.FetchRecords("")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ok", recs[0].ID())

	cts, err := b.FetchContentTypes()
	require.NoError(t, err)
	assert.Len(t, cts, 1)

	v, err := b.GetFieldValue("good")
	require.NoError(t, err)
	assert.Equal(t, types.NewExternal("x"), v)

	v, err = b.GetFieldValue("bad")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = b.GetFieldValue("unset")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestValidateValue(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "null", in: `null`},
		{name: "internal empty", in: `{"linkType":"internal","entry":null}`},
		{name: "internal linked", in: `{"linkType":"internal","entry":{"sys":{"id":"a"}}}`},
		{name: "external", in: `{"linkType":"external","url":""}`},
		{name: "internal missing entry", in: `{"linkType":"internal"}`, wantErr: true},
		{name: "internal entry without id", in: `{"linkType":"internal","entry":{"sys":{}}}`, wantErr: true},
		{name: "external with entry", in: `{"linkType":"external","url":"","entry":null}`, wantErr: true},
		{name: "external url not string", in: `{"linkType":"external","url":5}`, wantErr: true},
		{name: "unknown tag", in: `{"linkType":"asset"}`, wantErr: true},
		{name: "array", in: `[]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateValue([]byte(tt.in))
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidValue)
				return
			}
			assert.NoError(t, err)
		})
	}
}
