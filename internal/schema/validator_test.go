package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()

	maxLen := 64
	min, max := 0.0, 100.0
	reg, err := NewRegistry([]*Definition{
		{
			ID:      "page.view",
			Version: 1,
			Domain:  "web",
			Tags:    []string{"engagement"},
			Attributes: []AttributeDefinition{
				{Name: "path", Type: TypeString, Required: true, MaxLength: &maxLen},
				{Name: "score", Type: TypeNumber, Minimum: &min, Maximum: &max},
				{Name: "count", Type: TypeInteger},
				{Name: "channel", Type: TypeString, EnumValues: []string{"web", "mobile"}},
				{Name: "flags", Type: TypeObject},
				{Name: "items", Type: TypeArray},
				{Name: "opted_in", Type: TypeBoolean},
			},
		},
		{
			ID:      "checkout.completed",
			Version: 3,
			Domain:  "electronics",
			Tags:    []string{"transaction", "conversion"},
			Attributes: []AttributeDefinition{
				{Name: "amount", Type: TypeNumber, Required: true},
			},
		},
	})
	require.NoError(t, err)
	return reg
}

func validSignal() *v1.Signal {
	return &v1.Signal{
		SchemaID:   "page.view",
		UserID:     "user-1",
		Attributes: map[string]interface{}{"path": "/home"},
	}
}

func TestValidate_MissingSubjectFails(t *testing.T) {
	val := NewValidator(testRegistry(t), 50)

	sig := validSignal()
	sig.UserID = ""
	sig.SessionID = ""

	_, err := val.Validate(sig)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Message, "user_id or session_id")
}

func TestValidate_SessionOnlyPasses(t *testing.T) {
	val := NewValidator(testRegistry(t), 50)

	sig := validSignal()
	sig.UserID = ""
	sig.SessionID = "session-9"

	_, err := val.Validate(sig)
	require.NoError(t, err)
}

func TestValidate_UnknownSchemaFails(t *testing.T) {
	val := NewValidator(testRegistry(t), 50)

	sig := validSignal()
	sig.SchemaID = "nope.never"

	_, err := val.Validate(sig)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestValidate_RequiredAttributeMissingFails(t *testing.T) {
	val := NewValidator(testRegistry(t), 50)

	sig := validSignal()
	delete(sig.Attributes, "path")

	_, err := val.Validate(sig)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "path", verr.Field)
}

func TestValidate_NumericBounds(t *testing.T) {
	val := NewValidator(testRegistry(t), 50)

	sig := validSignal()
	sig.Attributes["score"] = 150.0
	_, err := val.Validate(sig)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "score", verr.Field)

	sig = validSignal()
	sig.Attributes["score"] = 50.0
	validated, err := val.Validate(sig)
	require.NoError(t, err)
	require.Equal(t, 50.0, validated.Attributes["score"])
}

func TestValidate_IntegerRejectsFraction(t *testing.T) {
	val := NewValidator(testRegistry(t), 50)

	sig := validSignal()
	sig.Attributes["count"] = 2.5
	_, err := val.Validate(sig)
	require.Error(t, err)

	sig = validSignal()
	sig.Attributes["count"] = 3.0 // JSON integers decode as float64
	_, err = val.Validate(sig)
	require.NoError(t, err)
}

func TestValidate_EnumIsCaseInsensitive(t *testing.T) {
	val := NewValidator(testRegistry(t), 50)

	sig := validSignal()
	sig.Attributes["channel"] = "WEB"
	_, err := val.Validate(sig)
	require.NoError(t, err)

	sig = validSignal()
	sig.Attributes["channel"] = "carrier_pigeon"
	_, err = val.Validate(sig)
	require.Error(t, err)
}

func TestValidate_TypeMismatches(t *testing.T) {
	val := NewValidator(testRegistry(t), 50)

	cases := map[string]interface{}{
		"path":     42,
		"flags":    "not-an-object",
		"items":    map[string]interface{}{},
		"opted_in": "yes",
	}
	for field, value := range cases {
		sig := validSignal()
		sig.Attributes[field] = value

		_, err := val.Validate(sig)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "field %s", field)
		require.Equal(t, field, verr.Field)
	}
}

func TestValidate_AttributeCountCap(t *testing.T) {
	val := NewValidator(testRegistry(t), 3)

	sig := validSignal()
	sig.Attributes["a"] = 1
	sig.Attributes["b"] = 2
	sig.Attributes["c"] = 3

	_, err := val.Validate(sig)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Message, "attribute count exceeds maximum of 3")
}

func TestValidate_DefaultsAndIdempotency(t *testing.T) {
	val := NewValidator(testRegistry(t), 50)
	frozen := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	val.now = func() time.Time { return frozen }

	sig := validSignal()
	validated, err := val.Validate(sig)
	require.NoError(t, err)
	require.Equal(t, frozen, validated.Timestamp)
	require.Equal(t, frozen, validated.IngestedAt)
	require.Equal(t, 1, validated.Version)

	// Re-validation must not touch already-populated fields.
	val.now = func() time.Time { return frozen.Add(time.Hour) }
	revalidated, err := val.Validate(validated)
	require.NoError(t, err)
	require.Equal(t, frozen, revalidated.Timestamp)
	require.Equal(t, frozen, revalidated.IngestedAt)
	require.Equal(t, 1, revalidated.Version)
}

func TestValidate_ValidationErrorDetails(t *testing.T) {
	val := NewValidator(testRegistry(t), 50)

	sig := validSignal()
	sig.Attributes["score"] = -5
	_, err := val.Validate(sig)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	details := verr.Details()
	require.Equal(t, "page.view", details["schema_id"])
	require.Equal(t, "score", details["field"])
}

func TestValidate_NilSignalFails(t *testing.T) {
	val := NewValidator(testRegistry(t), 50)

	_, err := val.Validate(nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.False(t, errors.Is(err, ErrNotFound))
}
