package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	for _, opts := range []*LoggingOpts{
		{},
		{Debug: true, JSON: true, Service: "installer", Version: "v0.0.1"},
	} {
		log := SetupLogger(opts)
		require.NotNil(t, log)
	}
}
