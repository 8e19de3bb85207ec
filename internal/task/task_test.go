package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid", input: "2026-02-19", want: "2026-02-19"},
		{name: "leap day", input: "2028-02-29", want: "2028-02-29"},
		{name: "invalid day", input: "2026-02-30", wantErr: true},
		{name: "wrong layout", input: "19/02/2026", wantErr: true},
		{name: "datetime rejected", input: "2026-02-19T10:00:00Z", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDateAddDays(t *testing.T) {
	tests := []struct {
		name string
		from string
		days int
		want string
	}{
		{name: "plain", from: "2026-02-19", days: 1, want: "2026-02-20"},
		{name: "month rollover", from: "2026-02-28", days: 1, want: "2026-03-01"},
		{name: "year rollover", from: "2026-12-31", days: 1, want: "2027-01-01"},
		{name: "over weekend", from: "2026-02-20", days: 1, want: "2026-02-21"},
		{name: "leap february", from: "2028-02-28", days: 1, want: "2028-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.AddDays(tt.days).String())
		})
	}
}

func TestFieldsIsEmpty(t *testing.T) {
	assert.True(t, Fields{}.IsEmpty())

	title := "new name"
	assert.False(t, Fields{Title: &title}.IsEmpty())

	status := StatusDone
	assert.False(t, Fields{Status: &status}.IsEmpty())

	// An explicit clear counts as a change even with every value nil.
	assert.False(t, Fields{ClearDueDate: true}.IsEmpty())
}

func TestNumericIDString(t *testing.T) {
	assert.Equal(t, "TASK-42", NumericID{Prefix: "TASK", Number: 42}.String())
	assert.Equal(t, "7", NumericID{Number: 7}.String())
}

func TestKnownValues(t *testing.T) {
	assert.True(t, KnownStatus(StatusInProgress))
	assert.False(t, KnownStatus(Status("Blocked")))
	assert.True(t, KnownPriority(PriorityHigh))
	assert.False(t, KnownPriority(Priority("Urgent")))
}
