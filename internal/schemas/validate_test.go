package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEvaluation_Valid(t *testing.T) {
	doc := []byte(`{
		"score": 85,
		"technicalAccuracy": 90,
		"problemSolving": 80,
		"communication": 75,
		"timeEfficiency": 95,
		"feedback": "Solid answer with good coverage of the core concepts.",
		"suggestions": ["Mention trade-offs explicitly."]
	}`)
	assert.NoError(t, ValidateEvaluation(doc))
}

func TestValidateEvaluation_MissingFields(t *testing.T) {
	doc := []byte(`{"score": 85, "feedback": "ok"}`)

	err := ValidateEvaluation(doc)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.NotEmpty(t, ve.Errors)
}

func TestValidateEvaluation_ScoreOutOfRange(t *testing.T) {
	doc := []byte(`{
		"score": 120,
		"technicalAccuracy": 90,
		"problemSolving": 80,
		"communication": 75,
		"timeEfficiency": 95,
		"feedback": "ok",
		"suggestions": ["x"]
	}`)
	assert.Error(t, ValidateEvaluation(doc))
}

func TestValidateEvaluation_EmptySuggestions(t *testing.T) {
	doc := []byte(`{
		"score": 50,
		"technicalAccuracy": 50,
		"problemSolving": 50,
		"communication": 50,
		"timeEfficiency": 50,
		"feedback": "ok",
		"suggestions": []
	}`)
	assert.Error(t, ValidateEvaluation(doc))
}

func TestValidateEvaluation_MalformedJSON(t *testing.T) {
	err := ValidateEvaluation([]byte(`{not json`))
	assert.Error(t, err)
}
