package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customerd/internal/customer/models"
	"customerd/pkg/testutil"
)

func TestDateSerialization(t *testing.T) {
	testutil.Given(t, "a customer date of birth", func(t *testing.T) {
		dob := models.NewDate(1992, time.March, 14)

		testutil.When(t, "it is marshaled", func(t *testing.T) {
			raw, err := json.Marshal(dob)
			require.NoError(t, err)

			testutil.Then(t, "it serializes as YYYY-MM-DD", func(t *testing.T) {
				assert.Equal(t, `"1992-03-14"`, string(raw))
			})
		})
	})

	testutil.Given(t, "a payload with a date string", func(t *testing.T) {
		var dob models.Date
		require.NoError(t, json.Unmarshal([]byte(`"1992-03-14"`), &dob))
		assert.Equal(t, "1992-03-14", dob.String())
	})
}

func TestDateRejectsOtherFormats(t *testing.T) {
	var dob models.Date
	for _, raw := range []string{`"14-03-1992"`, `"1992/03/14"`, `"March 14, 1992"`} {
		assert.Error(t, json.Unmarshal([]byte(raw), &dob), raw)
	}
}

func TestDateZeroValues(t *testing.T) {
	var dob models.Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &dob))
	assert.True(t, dob.IsZero())

	raw, err := json.Marshal(models.Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}
