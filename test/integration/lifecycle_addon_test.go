//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
	"github.com/sift-lab/project-sift/internal/jobs"
)

func TestJobsLifecycle_E2E(t *testing.T) {
	h := startHarness(t)
	defer h.close(t)

	require.NoError(t, resetDatabase(t, h.db))

	now := time.Now().UTC().Truncate(time.Second)
	for _, userID := range []string{"lifecycle-user-1", "lifecycle-user-2"} {
		for i := 0; i < 3; i++ {
			sig := v1.Signal{
				SchemaID:   "page.view",
				UserID:     userID,
				Timestamp:  now.Add(-time.Duration(i) * time.Minute),
				Attributes: map[string]interface{}{"path": fmt.Sprintf("/p/%d", i)},
			}
			status, body := postJSON(t, h.client, h.baseURL+"/v1/signals", sig)
			require.Equal(t, http.StatusAccepted, status, string(body))
		}
	}

	// A bounded continuous job drains both pending users and completes.
	status, body := postJSON(t, h.client, h.baseURL+"/v1/analysis/jobs", map[string]interface{}{
		"users_per_batch": 10,
		"interval":        "50ms",
		"max_iterations":  2,
	})
	require.Equal(t, http.StatusAccepted, status, string(body))

	var started struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(body, &started))
	require.NotEmpty(t, started.JobID)

	waitForJobStatus(t, h, started.JobID, jobs.StatusCompleted, 10*time.Second)

	for _, userID := range []string{"lifecycle-user-1", "lifecycle-user-2"} {
		var count int
		require.NoError(t, h.db.QueryRow(`SELECT COUNT(*) FROM insights WHERE user_id=$1`, userID).Scan(&count))
		require.Equal(t, 1, count, "insight for %s", userID)
	}
}

func TestJobsLifecycle_CancelAndPause(t *testing.T) {
	h := startHarness(t)
	defer h.close(t)

	require.NoError(t, resetDatabase(t, h.db))

	// Unbounded job with a long interval parks after its first iteration.
	status, body := postJSON(t, h.client, h.baseURL+"/v1/analysis/jobs", map[string]interface{}{
		"users_per_batch": 10,
		"interval":        "1h",
	})
	require.Equal(t, http.StatusAccepted, status, string(body))

	var started struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(body, &started))

	cancelURL := h.baseURL + "/v1/analysis/jobs/" + started.JobID
	req, err := http.NewRequest(http.MethodDelete, cancelURL, nil)
	require.NoError(t, err)
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	waitForJobStatus(t, h, started.JobID, jobs.StatusCancelled, 10*time.Second)

	// Cancelling again reports not-found.
	req, err = http.NewRequest(http.MethodDelete, cancelURL, nil)
	require.NoError(t, err)
	resp, err = h.client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	status, _ = postJSON(t, h.client, h.baseURL+"/v1/analysis/pause", nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, h.orchestrator.Paused())

	status, _ = postJSON(t, h.client, h.baseURL+"/v1/analysis/resume", nil)
	require.Equal(t, http.StatusOK, status)
	require.False(t, h.orchestrator.Paused())
}

func TestScheduledAnalysis_E2E(t *testing.T) {
	h := startHarnessWithScheduler(t, 200*time.Millisecond)
	defer h.close(t)

	require.NoError(t, resetDatabase(t, h.db))

	sig := v1.Signal{
		SchemaID:   "page.view",
		UserID:     "scheduled-user",
		Timestamp:  time.Now().UTC().Truncate(time.Second),
		Attributes: map[string]interface{}{"path": "/home"},
	}
	status, body := postJSON(t, h.client, h.baseURL+"/v1/signals", sig)
	require.Equal(t, http.StatusAccepted, status, string(body))

	// The scheduler picks the pending user up on one of its ticks.
	require.Eventually(t, func() bool {
		var count int
		if err := h.db.QueryRow(`SELECT COUNT(*) FROM insights WHERE user_id=$1`, "scheduled-user").Scan(&count); err != nil {
			return false
		}
		return count == 1
	}, 10*time.Second, 200*time.Millisecond)
}

func waitForJobStatus(t *testing.T, h *integrationHarness, jobID string, want jobs.Status, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	var last jobs.Job
	for time.Now().Before(deadline) {
		resp, err := h.client.Get(h.baseURL + "/v1/analysis/jobs/" + jobID)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		require.NoError(t, json.Unmarshal(body, &last))
		if last.Status == want {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach %s (last status %s)", jobID, want, last.Status)
}
