package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(t *testing.T) *Record {
	t.Helper()
	r, err := NewRecord("rec-1", "article", map[string]map[string]any{
		"title": {"en-US": "Hello"},
	})
	require.NoError(t, err)
	return r
}

func TestFieldValueIsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		value *FieldValue
		want  bool
	}{
		{name: "unset has no opinion", value: nil, want: false},
		{name: "internal without target", value: NewInternal(nil), want: true},
		{name: "internal with target", value: NewInternal(&Record{raw: []byte(`{}`)}), want: false},
		{name: "external empty url", value: NewExternal(""), want: true},
		{name: "external with url", value: NewExternal("https://example.com"), want: false},
		{name: "unknown tag", value: &FieldValue{LinkType: "mailto"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.IsInvalid())
		})
	}
}

func TestEmpty(t *testing.T) {
	v, err := Empty(LinkTypeInternal)
	require.NoError(t, err)
	assert.Equal(t, &FieldValue{LinkType: LinkTypeInternal}, v)

	v, err = Empty(LinkTypeExternal)
	require.NoError(t, err)
	assert.Equal(t, &FieldValue{LinkType: LinkTypeExternal}, v)

	_, err = Empty("ftp")
	assert.ErrorIs(t, err, ErrInvalidLinkType)
}

func TestVariantUpdatersDropOtherPayload(t *testing.T) {
	r := testRecord(t)

	ext := NewInternal(r).WithURL("https://example.com")
	assert.Equal(t, LinkTypeExternal, ext.LinkType)
	assert.Nil(t, ext.Entry)
	assert.Nil(t, ext.Target())

	in := NewExternal("https://example.com").WithTarget(r)
	assert.Equal(t, LinkTypeInternal, in.LinkType)
	assert.Empty(t, in.URL)
	assert.Equal(t, "rec-1", in.TargetID())

	var unset *FieldValue
	assert.Equal(t, LinkTypeExternal, unset.WithURL("").Kind())
	assert.Equal(t, LinkType(""), unset.Kind())
	assert.Empty(t, unset.TargetID())
}

func TestParseLinkType(t *testing.T) {
	got, err := ParseLinkType("internal")
	require.NoError(t, err)
	assert.Equal(t, LinkTypeInternal, got)

	got, err = ParseLinkType("external")
	require.NoError(t, err)
	assert.Equal(t, LinkTypeExternal, got)

	_, err = ParseLinkType("Internal")
	assert.ErrorIs(t, err, ErrInvalidLinkType)
}

func TestEncodeValue(t *testing.T) {
	r := testRecord(t)

	tests := []struct {
		name  string
		value *FieldValue
		want  string
	}{
		{name: "unset", value: nil, want: `null`},
		{name: "internal empty", value: NewInternal(nil), want: `{"linkType":"internal","entry":null}`},
		{name: "internal linked", value: NewInternal(r), want: `{"linkType":"internal","entry":` + string(r.Bytes()) + `}`},
		{name: "external empty", value: NewExternal(""), want: `{"linkType":"external","url":""}`},
		{name: "external stray entry dropped", value: &FieldValue{LinkType: LinkTypeExternal, URL: "u", Entry: r}, want: `{"linkType":"external","url":"u"}`},
		{name: "internal stray url dropped", value: &FieldValue{LinkType: LinkTypeInternal, URL: "u"}, want: `{"linkType":"internal","entry":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeValue(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestDecodeValue(t *testing.T) {
	t.Run("unset forms", func(t *testing.T) {
		for _, in := range []string{"", "null", "  null \n"} {
			v, err := DecodeValue([]byte(in))
			require.NoError(t, err)
			assert.Nil(t, v)
		}
	})

	t.Run("internal keeps the record verbatim", func(t *testing.T) {
		in := `{"linkType":"internal","entry":{"sys":{"id":"x","contentType":{"sys":{"id":"article"}}},"fields":{"title":{"en-US":"Hi"}},"extra":[1,2]}}`
		v, err := DecodeValue([]byte(in))
		require.NoError(t, err)
		assert.Equal(t, "x", v.TargetID())
		assert.Equal(t, "article", v.Entry.ContentTypeID())

		out, err := EncodeValue(v)
		require.NoError(t, err)
		assert.JSONEq(t, in, string(out))
	})

	t.Run("missing entry decodes as no target", func(t *testing.T) {
		v, err := DecodeValue([]byte(`{"linkType":"internal"}`))
		require.NoError(t, err)
		assert.True(t, v.IsInvalid())
	})

	t.Run("external ignores entry", func(t *testing.T) {
		v, err := DecodeValue([]byte(`{"linkType":"external","url":"https://a.b","entry":{"sys":{}}}`))
		require.NoError(t, err)
		assert.Equal(t, NewExternal("https://a.b"), v)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := DecodeValue([]byte(`{"linkType":"asset"}`))
		assert.ErrorIs(t, err, ErrInvalidLinkType)

		_, err = DecodeValue([]byte(`{"linkType":"internal","entry":"rec-1"}`))
		assert.ErrorIs(t, err, ErrInvalidValue)

		_, err = DecodeValue([]byte(`[1,2]`))
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
}

func TestFieldValueEqual(t *testing.T) {
	assert.True(t, (*FieldValue)(nil).Equal(nil))
	assert.True(t, NewExternal("a").Equal(NewExternal("a")))
	assert.False(t, NewExternal("a").Equal(NewExternal("b")))
	assert.False(t, NewExternal("").Equal(nil))
	assert.True(t, NewInternal(testRecord(t)).Equal(NewInternal(testRecord(t))))
}
