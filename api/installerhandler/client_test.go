package installerhandler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ruteri/installer-provisioning-backend/database"
	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Flow(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx := context.Background()
	client := NewClient(srv.URL+"/", srv.Client())

	token, err := client.CreateToken(ctx, uint64(env.app.ID), uint64(env.entity.ID))
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)

	claims, err := InspectToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(env.app.ID), claims.AppID)
	assert.Equal(t, uint64(env.entity.ID), claims.EntityID)

	list, err := client.ListTokens(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, token.Token, list[0].Token)

	var script bytes.Buffer
	archiveID, err := client.Download(ctx, token.Token, &script)
	require.NoError(t, err)
	assert.Empty(t, archiveID)
	assert.Contains(t, script.String(), "REGISTER_URL="+srv.URL+interfaces.RegisterPath)

	m := installHashLine.FindStringSubmatch(script.String())
	require.Len(t, m, 2)
	require.NoError(t, client.Register(ctx, interfaces.Registration{
		InstallHash:  m[1],
		EntityHash:   testEntityHash,
		InstallToken: token.Token,
	}))

	links, err := env.registry.ListInstallations(ctx, database.InstallationFilter{EntityID: env.entity.ID})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, m[1], links[0].InstallHash)

	require.NoError(t, client.DeleteToken(ctx, token.Token))

	_, err = client.Download(ctx, token.Token, &bytes.Buffer{})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "got %v", err)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.Message, "not found")
}

func TestClient_Errors(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx := context.Background()
	client := NewClient(srv.URL, nil)

	err := client.DeleteToken(ctx, "never-issued")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, statusErr.Message, "token not found")

	err = client.Register(ctx, interfaces.Registration{InstallToken: "x"})
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)

	_, err = client.CreateToken(ctx, 0, 1)
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil).ListTokens(context.Background())
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}
