package memory

import (
	"testing"

	"github.com/tendant/nexus-crm/pkg/repository"
	"github.com/tendant/nexus-crm/pkg/repository/storetest"
)

func TestStores(t *testing.T) {
	storetest.Run(t, func(*testing.T) repository.Stores { return NewStores() })
}
