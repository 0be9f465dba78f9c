package lockmgr

import (
	"fmt"
	"github.com/google/uuid"
	"os"
)

// processTag identifies this process in owner IDs (host/pid)
var processTag = func() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s/%d", host, os.Getpid())
}()

// generateOwnerID creates a new unique owner ID of the form host/pid/uuid.
// The readable prefix shows which process holds a lock when inspecting the store.
func generateOwnerID() ([]byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	return []byte(processTag + "/" + id.String()), nil
}
