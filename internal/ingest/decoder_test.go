package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerB58 = "So11111111111111111111111111111111111111112"
	keyB58   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	mintB58  = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
)

func TestJSONDecoderDecodesAccountEnvelope(t *testing.T) {
	d := &JSONDecoder{}
	raw := []byte(`{"kind":"account","account":{"owner":"` + ownerB58 + `","key":"` + keyB58 + `","data":"AQID"}}`)
	au, tu, err := d.Decode(raw)
	require.NoError(t, err)
	require.Nil(t, tu)
	require.NotNil(t, au)
	assert.Equal(t, []byte{1, 2, 3}, au.Data)
}

func TestJSONDecoderDecodesTransactionEnvelope(t *testing.T) {
	d := &JSONDecoder{}
	raw := []byte(`{"kind":"transaction","transaction":{
		"accountKeys":["` + keyB58 + `"],
		"pre":[{"accountIndex":0,"mint":"` + mintB58 + `","owner":"` + ownerB58 + `","uiAmount":100}],
		"post":[{"accountIndex":0,"mint":"` + mintB58 + `","owner":"` + ownerB58 + `","uiAmount":150}]
	}}`)
	au, tu, err := d.Decode(raw)
	require.NoError(t, err)
	require.Nil(t, au)
	require.NotNil(t, tu)
	require.Len(t, tu.AccountKeys, 1)
	assert.Equal(t, uint64(100), tu.Pre[0].UIAmount)
	assert.Equal(t, uint64(150), tu.Post[0].UIAmount)
}

func TestJSONDecoderRejectsUnknownKind(t *testing.T) {
	d := &JSONDecoder{}
	_, _, err := d.Decode([]byte(`{"kind":"bogus"}`))
	assert.Error(t, err)
}

func TestJSONDecoderRejectsInvalidBase58Key(t *testing.T) {
	d := &JSONDecoder{}
	raw := []byte(`{"kind":"account","account":{"owner":"not-a-key","key":"` + keyB58 + `"}}`)
	_, _, err := d.Decode(raw)
	assert.Error(t, err)
}

func TestJSONDecoderRejectsMalformedJSON(t *testing.T) {
	d := &JSONDecoder{}
	_, _, err := d.Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestRawCodecRoundTripsBytes(t *testing.T) {
	c := rawCodec{}
	src := rawFrame([]byte{9, 8, 7})
	marshaled, err := c.Marshal(&src)
	require.NoError(t, err)

	var dst rawFrame
	require.NoError(t, c.Unmarshal(marshaled, &dst))
	assert.Equal(t, src, dst)
}

func TestRawCodecRejectsWrongType(t *testing.T) {
	c := rawCodec{}
	_, err := c.Marshal("not a rawFrame")
	assert.Error(t, err)

	var s string
	assert.Error(t, c.Unmarshal([]byte{1}, &s))
}
