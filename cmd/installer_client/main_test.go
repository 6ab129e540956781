package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenViews(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	list := []interfaces.InstallationToken{
		{ID: 1, Token: "old", ExpiresAt: now.Add(-time.Minute)},
		{ID: 2, Token: "edge", ExpiresAt: now},
		{ID: 3, Token: "live", ExpiresAt: now.Add(time.Hour)},
	}

	views := tokenViews(list, now)
	require.Len(t, views, 3)
	assert.True(t, views[0].Expired)
	assert.True(t, views[1].Expired)
	assert.False(t, views[2].Expired)

	raw, err := json.Marshal(views[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"token":"live","expiresAt":"2024-05-01T13:00:00Z","expired":false}`, string(raw))
}
