package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ferrodb/ferro/pkg/controller"
	"github.com/ferrodb/ferro/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, Output: io.Discard})
}

type fakeStatus struct {
	status controller.Status
}

func (f *fakeStatus) Status() controller.Status { return f.status }

type fakeQueue struct {
	depth int
}

func (f *fakeQueue) Depth() int { return f.depth }

func TestHealthzHealthy(t *testing.T) {
	s := NewServer(&fakeStatus{status: controller.Status{Role: "Leader"}}, nil)

	rec := httptest.NewRecorder()
	s.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzDuringShutdown(t *testing.T) {
	for _, role := range []string{"ShuttingDown", "Shutdown"} {
		t.Run(role, func(t *testing.T) {
			s := NewServer(&fakeStatus{status: controller.Status{Role: role}}, nil)

			rec := httptest.NewRecorder()
			s.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		})
	}
}

func TestStatusz(t *testing.T) {
	status := controller.Status{
		NodeID: "node-1",
		Role:   "Follower",
		Leader: "node-2",
		Ready:  true,
	}
	s := NewServer(&fakeStatus{status: status}, &fakeQueue{depth: 3})

	rec := httptest.NewRecorder()
	s.statusHandler(rec, httptest.NewRequest(http.MethodGet, "/statusz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "node-1", resp.NodeID)
	assert.Equal(t, "Follower", resp.Role)
	assert.Equal(t, "node-2", resp.Leader)
	assert.True(t, resp.Ready)
	assert.Equal(t, 3, resp.QueueDepth)
}
