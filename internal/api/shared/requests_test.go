package shared

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(
			http.MethodPost,
			"/actors",
			bytes.NewBufferString(`{"action": "help_peer", "amount": 12.5}`),
		)

		var body struct {
			Action string  `json:"action"`
			Amount float64 `json:"amount"`
		}
		require.NoError(t, DecodeJSON(req, &body))
		assert.Equal(t, "help_peer", body.Action)
		assert.Equal(t, 12.5, body.Amount)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/actors", bytes.NewBufferString(`{"action": ,}`))

		var body struct{}
		err := DecodeJSON(req, &body)
		assert.Error(t, err)
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/actors", bytes.NewBufferString(""))

		var body struct{}
		err := DecodeJSON(req, &body)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EOF")
	})
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDecodeJSONReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/actors", failingReader{})

	var body struct{}
	err := DecodeJSON(req, &body)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// selfValidating exercises the custom Validate path in ValidateRequest.
type selfValidating struct {
	Amount float64
}

func (v *selfValidating) Validate() error {
	if v.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	t.Run("custom Validate method is preferred", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(&selfValidating{Amount: 5}))
		assert.Error(t, ValidateRequest(&selfValidating{Amount: 0}))
	})

	t.Run("struct tags apply otherwise", func(t *testing.T) {
		type redeemRequest struct {
			Token  string  `validate:"required"`
			Amount float64 `validate:"gt=0"`
		}

		assert.NoError(t, ValidateRequest(&redeemRequest{Token: "punya", Amount: 3}))
		assert.Error(t, ValidateRequest(&redeemRequest{Token: "", Amount: 3}))
		assert.Error(t, ValidateRequest(&redeemRequest{Token: "punya", Amount: -1}))
	})

	t.Run("untagged struct passes", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(&struct{ Note string }{"ordinary"}))
	})
}
