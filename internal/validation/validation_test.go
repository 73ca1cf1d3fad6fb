package validation

import (
	"encoding/json"
	"testing"

	"propertytrack/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string  `json:"email" validate:"required,email"`
	Quantity int     `json:"quantity" validate:"gte=0"`
	Status   *string `json:"status" validate:"omitnil,oneof=ok missing"`
	Name     *string `json:"name" validate:"omitnil,min=1,max=5"`
}

func TestStructValid(t *testing.T) {
	ok := "ok"
	require.NoError(t, Struct(sample{Email: "a@b.test", Status: &ok}))
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	bad := "broken"
	empty := ""
	err := Struct(sample{Email: "nope", Quantity: -1, Status: &bad, Name: &empty})

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)

	got := map[string]string{}
	for _, f := range e.Fields {
		got[f.Field] = f.Message
	}
	assert.Equal(t, "must be a valid email", got["email"])
	assert.Equal(t, "must be greater than or equal to 0", got["quantity"])
	assert.Equal(t, "must be one of: ok, missing", got["status"])
	assert.Equal(t, "must be at least 1 characters", got["name"])
}

func TestStructNilPointersSkipped(t *testing.T) {
	require.NoError(t, Struct(sample{Email: "a@b.test"}))
}

type patch struct {
	AssignedTo Nullable[uint]   `json:"assignedTo"`
	Note       Nullable[string] `json:"note"`
}

func TestNullableTracksPresence(t *testing.T) {
	cases := map[string]struct {
		body     string
		set      bool
		assignee *uint
	}{
		"absent": {body: `{}`},
		"null":   {body: `{"assignedTo":null}`, set: true},
		"value":  {body: `{"assignedTo":7}`, set: true, assignee: ptr(uint(7))},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var p patch
			require.NoError(t, json.Unmarshal([]byte(tc.body), &p))
			assert.Equal(t, tc.set, p.AssignedTo.Set)
			assert.Equal(t, tc.assignee, p.AssignedTo.Value)
			assert.False(t, p.Note.Set)
		})
	}

	var p patch
	assert.Error(t, json.Unmarshal([]byte(`{"assignedTo":"x"}`), &p))
}

func ptr[T any](v T) *T { return &v }
