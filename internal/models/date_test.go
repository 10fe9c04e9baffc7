package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-01-10", want: "2024-01-10"},
		{in: " 2024-01-10 ", want: "2024-01-10"},
		{in: "2024-01-10T23:30:00-05:00", want: "2024-01-10"},
		{in: "2024-01-10 08:15:00", want: "2024-01-10"},
		{in: "2024-01-10T08:15", want: "2024-01-10"},
		{in: "10/01/2024", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Due Date `json:"due_date"`
	}

	b, err := json.Marshal(payload{Due: NewDate(2024, time.January, 10)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due_date":"2024-01-10"}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"due_date":"2024-02-29"}`), &p))
	assert.Equal(t, NewDate(2024, time.February, 29), p.Due)

	assert.Error(t, json.Unmarshal([]byte(`{"due_date":"tomorrow"}`), &p))

	b, err = json.Marshal(payload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due_date":null}`, string(b))
}

func TestDate_Scan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan("2024-03-05"))
	assert.Equal(t, "2024-03-05", d.String())

	require.NoError(t, d.Scan([]byte("2024-03-06 00:00:00+00:00")))
	assert.Equal(t, "2024-03-06", d.String())

	require.NoError(t, d.Scan(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-07", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
	assert.Error(t, d.Scan("garbage"))

	v, err := NewDate(2024, time.March, 8).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-08", v)
}
