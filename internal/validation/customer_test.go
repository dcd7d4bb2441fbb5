package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func fields(err error) []string {
	verr, ok := err.(*Error)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		out = append(out, v.Field)
	}
	return out
}

func TestCustomer_Valid(t *testing.T) {
	in, err := Customer(decode(t, `{"name":"Ana Silva","email":"ana@example.com","phone":"11999999999","taxId":"12345678901"}`))
	require.NoError(t, err)

	assert.Equal(t, "Ana Silva", in.Name)
	assert.Equal(t, "ana@example.com", in.Email)
	assert.Equal(t, "11999999999", in.Phone)
	assert.Equal(t, "12345678901", in.TaxID)
}

func TestCustomer_Violations(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{"empty object", `{}`, []string{"name", "email", "phone", "taxId"}},
		{"short name", `{"name":"A","email":"ana@example.com","phone":"11999999999","taxId":"12345678901"}`, []string{"name"}},
		{"bad email", `{"name":"Ana","email":"not-an-email","phone":"11999999999","taxId":"12345678901"}`, []string{"email"}},
		{"short phone and tax id", `{"name":"Ana","email":"ana@example.com","phone":"119","taxId":"123"}`, []string{"phone", "taxId"}},
		{"wrong types", `{"name":42,"email":true,"phone":"11999999999","taxId":null}`, []string{"name", "email", "taxId"}},
		{"empty strings", `{"name":"","email":"","phone":"","taxId":""}`, []string{"name", "email", "phone", "taxId"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Customer(decode(t, tt.body))
			require.Error(t, err)

			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.fields, fields(err))
			for _, v := range verr.Violations {
				assert.NotEmpty(t, v.Message)
				assert.NotEmpty(t, v.Rule)
			}
		})
	}
}

func TestCustomer_NonObject(t *testing.T) {
	_, err := Customer(decode(t, `["Ana"]`))
	require.Error(t, err)
	assert.Equal(t, []string{"body"}, fields(err))

	_, err = Customer(nil)
	require.Error(t, err)
}

func TestCustomer_Messages(t *testing.T) {
	_, err := Customer(decode(t, `{"name":"A","email":"x","phone":"1","taxId":"1"}`))
	require.Error(t, err)

	verr := err.(*Error)
	require.Len(t, verr.Violations, 4)
	assert.Equal(t, "Nome deve ter pelo menos 2 caracteres", verr.Violations[0].Message)
	assert.Equal(t, "Email inválido", verr.Violations[1].Message)
	assert.Equal(t, "email", verr.Violations[1].Rule)
	assert.Contains(t, err.Error(), "taxId")
}
