package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		title  any
		want   string
		wantOK bool
	}{
		{name: "trimmed", title: "  My Page  ", want: "My Page", wantOK: true},
		{name: "blank", title: "   ", wantOK: false},
		{name: "non string", title: 12.0, wantOK: false},
		{name: "missing", title: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			page := &fakePage{title: tt.title}
			got, ok := ExtractTitle(context.Background(), page, zap.NewNop())
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractAbout(t *testing.T) {
	t.Parallel()

	payload, err := ExtractAbout(context.Background(), aboutPage())
	require.NoError(t, err)
	assert.True(t, IsJSONString(payload))
	assert.JSONEq(t, `{"address":"Via Roma 1","latitude":45.1,"longitude":9.2,"phone":"+39 02 1234"}`, payload)
}

func TestExtractAboutNotFound(t *testing.T) {
	t.Parallel()

	page := &fakePage{html: `<html><body><script type="application/json">{"x":1}</script></body></html>`}
	_, err := ExtractAbout(context.Background(), page)
	require.ErrorIs(t, err, ErrAboutNotFound)
}

func TestExtractAboutUnexpectedResult(t *testing.T) {
	t.Parallel()

	_, err := ExtractAbout(context.Background(), &fakePage{html: 3.0})
	require.ErrorIs(t, err, ErrUnexpectedResult)

	_, err = ExtractAbout(context.Background(), &fakePage{html: "", htmlErr: errBoom})
	require.ErrorIs(t, err, errBoom)
}

func TestExtractAboutIgnoresOtherScriptTypes(t *testing.T) {
	t.Parallel()

	page := &fakePage{html: `<html><body>
<script>var x = {"about_app_sections":{"nodes":[1]}};</script>
<script type="application/ld+json">{"about_app_sections":{"nodes":[1]}}</script>
</body></html>`}
	_, err := ExtractAbout(context.Background(), page)
	require.ErrorIs(t, err, ErrAboutNotFound)
}

func TestBuildRecord(t *testing.T) {
	t.Parallel()

	rec, err := BuildRecord(`{"phone":"123"}`, "Bar Roma", true)
	require.NoError(t, err)
	assert.Equal(t, Record{{Key: "phone", Value: "123"}, {Key: DisplayNameKey, Value: "Bar Roma"}}, rec)

	rec, err = BuildRecord(`{}`, "", false)
	require.NoError(t, err)
	v, ok := rec.Get(DisplayNameKey)
	assert.True(t, ok)
	assert.Nil(t, v)

	rec, err = BuildRecord(`{"display_name":"old","phone":"1"}`, "New", true)
	require.NoError(t, err)
	assert.Equal(t, Record{{Key: DisplayNameKey, Value: "New"}, {Key: "phone", Value: "1"}}, rec)

	_, err = BuildRecord(`[1,2]`, "x", true)
	require.ErrorIs(t, err, ErrUnexpectedResult)
	_, err = BuildRecord(`{"a":`, "x", true)
	require.Error(t, err)
}
