package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submission struct {
	Email   string `json:"customer_email" validate:"omitempty,email"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=20"`
	Action  string `json:"action" validate:"omitempty,oneof=approve reject delete"`
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(submission{Email: "a@b.com", Rating: 4, Action: "approve"}))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	fields := fieldsOf(t, Validate(submission{Email: "nope", Rating: 3}))
	assert.Equal(t, "must be a valid email address", fields["customer_email"])
}

func TestValidate_NumericBoundsMessage(t *testing.T) {
	fields := fieldsOf(t, Validate(submission{Rating: 9}))
	assert.Equal(t, "must be at most 5", fields["rating"])
}

func TestValidate_StringBoundsMessage(t *testing.T) {
	fields := fieldsOf(t, Validate(submission{Rating: 2, Comment: strings.Repeat("x", 21)}))
	assert.Equal(t, "must be at most 20 characters", fields["comment"])
}

func TestValidate_OneOf(t *testing.T) {
	err := Validate(submission{Rating: 2, Action: "archive"})
	fields := fieldsOf(t, err)
	assert.Equal(t, "must be one of: approve reject delete", fields["action"])
	assert.Contains(t, err.Error(), "field 'action'")
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":5}`))
		var dst submission
		require.NoError(t, DecodeAndValidate(httptest.NewRecorder(), r, &dst, 1<<10))
		assert.Equal(t, 5, dst.Rating)
	})

	t.Run("unknown field", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":5,"stars":5}`))
		var dst submission
		err := DecodeAndValidate(httptest.NewRecorder(), r, &dst, 1<<10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode request body")
	})

	t.Run("body too large", func(t *testing.T) {
		body := `{"comment":"` + strings.Repeat("x", 64) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var dst submission
		assert.Error(t, DecodeAndValidate(httptest.NewRecorder(), r, &dst, 16))
	})

	t.Run("validation failure", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":0}`))
		var dst submission
		fields := fieldsOf(t, DecodeAndValidate(httptest.NewRecorder(), r, &dst, 1<<10))
		assert.Equal(t, "is required", fields["rating"])
	})
}
