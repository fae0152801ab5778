package batch

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itemservice/internal/models"
)

func TestOutcome_MarshalJSON(t *testing.T) {
	cases := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{
			name:    "processed",
			outcome: Processed(models.Item{ID: 1, Name: "Item1", Status: models.StatusProcessed}),
			want:    `{"id":1,"status":"processed","item":{"id":1,"name":"Item1","description":"","status":"PROCESSED","email":""}}`,
		},
		{
			name:    "skipped",
			outcome: Skipped(2, ReasonNotFound),
			want:    `{"id":2,"status":"skipped","reason":"not found"}`,
		},
		{
			name:    "failed",
			outcome: Failed(3, fmt.Errorf("%w: store: disk full", ErrPersistence)),
			want:    `{"id":3,"status":"failed","error":"persistence failure: store: disk full"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.outcome)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "2: skipped (not found)", Skipped(2, ReasonNotFound).String())
	assert.Equal(t, "3: failed (processing timed out)", Failed(3, ErrTimeout).String())
	assert.Equal(t, "1: processed", Processed(models.Item{ID: 1}).String())
}
