package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/tasklist/internal/models"
)

func TestStatusFlagsListCommonStatuses(t *testing.T) {
	for _, sub := range []string{"list", "create", "edit", "status"} {
		t.Run(sub, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newRootCmd()
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs([]string{sub, "--help"})
			require.NoError(t, cmd.Execute())

			for _, status := range []string{models.TaskStatusOpen, models.TaskStatusInProgress, models.TaskStatusDone} {
				assert.Contains(t, out.String(), status)
			}
		})
	}
}

func TestConnectRequiresToken(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"list", "--token", ""})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing --token")
}
