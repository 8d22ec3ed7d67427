// Package clickurl signs and verifies the tracking parameters embedded in
// published post links. The planner signs them; the ingest step verifies them
// before counting an event.
package clickurl

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// SignatureLength is the number of hex characters kept from the HMAC.
const SignatureLength = 12

// Query parameter names.
const (
	ParamPost     = "post"
	ParamTopic    = "topic"
	ParamImage    = "img"
	ParamThumb    = "tv"
	ParamKeyword  = "kw"
	ParamSubtopic = "sub"
	ParamSig      = "sig"
)

// TrackingParams identifies the choices that produced a published post.
type TrackingParams struct {
	PostID       string
	Topic        string
	ImageStyle   string
	ThumbVariant string
	Keyword      string
	Subtopic     string
}

// Message returns the pipe-delimited string that is signed.
// Format: "post|topic|img|tv|kw|sub".
func (p TrackingParams) Message() string {
	return strings.Join([]string{
		p.PostID, p.Topic, p.ImageStyle, p.ThumbVariant, p.Keyword, p.Subtopic,
	}, "|")
}

// Values encodes the params as URL query values without a signature.
func (p TrackingParams) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set(ParamPost, p.PostID)
	set(ParamTopic, p.Topic)
	set(ParamImage, p.ImageStyle)
	set(ParamThumb, p.ThumbVariant)
	set(ParamKeyword, p.Keyword)
	set(ParamSubtopic, p.Subtopic)
	return v
}

// ParamsFromValues is the inverse of Values.
func ParamsFromValues(v url.Values) TrackingParams {
	return TrackingParams{
		PostID:       v.Get(ParamPost),
		Topic:        v.Get(ParamTopic),
		ImageStyle:   v.Get(ParamImage),
		ThumbVariant: v.Get(ParamThumb),
		Keyword:      v.Get(ParamKeyword),
		Subtopic:     v.Get(ParamSubtopic),
	}
}

// Signer provides HMAC-SHA256 signing and verification using a shared secret.
type Signer struct {
	secret []byte
}

// NewSigner creates a new Signer with the given secret string.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the first SignatureLength hex characters of HMAC-SHA256(message).
func (s *Signer) Sign(message string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))[:SignatureLength]
}

// Verify compares in constant time.
func (s *Signer) Verify(message, signature string) bool {
	return hmac.Equal([]byte(s.Sign(message)), []byte(signature))
}

// SignedQuery returns the encoded query string for p including its signature.
func (s *Signer) SignedQuery(p TrackingParams) string {
	v := p.Values()
	v.Set(ParamSig, s.Sign(p.Message()))
	return v.Encode()
}
