package clickurl_test

import (
	"net/url"
	"testing"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/clickurl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleParams() clickurl.TrackingParams {
	return clickurl.TrackingParams{
		PostID:       "p-1",
		Topic:        "health",
		ImageStyle:   "watercolor",
		ThumbVariant: "question",
		Keyword:      "sleep tips",
	}
}

func TestSigner_SignAndVerify(t *testing.T) {
	t.Parallel()

	s := clickurl.NewSigner("secret")
	msg := sampleParams().Message()
	sig := s.Sign(msg)

	assert.Len(t, sig, clickurl.SignatureLength)
	assert.True(t, s.Verify(msg, sig))
	assert.False(t, s.Verify(msg, "000000000000"))
	assert.False(t, clickurl.NewSigner("other").Verify(msg, sig))
}

func TestTrackingParams_Message(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "p-1|health|watercolor|question|sleep tips|", sampleParams().Message())
}

func TestSigner_SignedQueryRoundTrip(t *testing.T) {
	t.Parallel()

	s := clickurl.NewSigner("secret")
	query := s.SignedQuery(sampleParams())

	values, err := url.ParseQuery(query)
	require.NoError(t, err)

	got := clickurl.ParamsFromValues(values)
	assert.Equal(t, sampleParams(), got)
	assert.True(t, s.Verify(got.Message(), values.Get(clickurl.ParamSig)))
	assert.False(t, values.Has(clickurl.ParamSubtopic))
}
