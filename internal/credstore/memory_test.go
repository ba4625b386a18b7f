package credstore_test

import (
	"testing"

	"github.com/aussiebroadwan/ignite/internal/credstore"
	"github.com/aussiebroadwan/ignite/internal/credstore/storetest"
)

func TestMemoryBackend(t *testing.T) {
	storetest.Run(t, func(*testing.T) credstore.Backend {
		return credstore.NewMemoryBackend()
	})
}
