package respond

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nurapulse/pulse/core/milestone"
	coremon "github.com/nurapulse/pulse/core/monitoring"
)

type countingMonitor struct{ n int }

func (c *countingMonitor) CaptureException(error, map[string]string) { c.n++ }
func (c *countingMonitor) Flush(time.Duration)                       {}

func TestFailure(t *testing.T) {
	mon := &countingMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })

	cases := []struct {
		err    error
		status int
		body   string
	}{
		{fmt.Errorf("%w: from is after to", milestone.ErrInvalidRequest), http.StatusBadRequest, `{"error":"invalid request: from is after to"}`},
		{fmt.Errorf("build: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, `{"error":"request timed out"}`},
		{errors.New("disk on fire"), http.StatusInternalServerError, `{"error":"computation failed"}`},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		Failure(rr, httptest.NewRequest(http.MethodGet, "/api/x", nil), tc.err)
		assert.Equal(t, tc.status, rr.Code)
		assert.JSONEq(t, tc.body, rr.Body.String())
	}
	assert.Equal(t, 1, mon.n, "only unexpected errors reach the monitor")
}
