package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tendant/nexus-crm/pkg/domain"
)

func TestRecorder_StageChanged(t *testing.T) {
	c := stageTransitions.WithLabelValues("proposal", "won")
	before := testutil.ToFloat64(c)

	Recorder{}.StageChanged(domain.StageProposal, domain.StageWon)

	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("transitions = %v, want %v", got, before+1)
	}
}

func TestObserveHTTPRequest(t *testing.T) {
	c := httpRequestsTotal.WithLabelValues("GET", "/v1/deals", "200")
	before := testutil.ToFloat64(c)

	ObserveHTTPRequest("GET", "/v1/deals", "200", 10*time.Millisecond)

	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("requests = %v, want %v", got, before+1)
	}
}

func TestObserveLogin(t *testing.T) {
	c := loginAttempts.WithLabelValues("error")
	before := testutil.ToFloat64(c)

	ObserveLogin(false)

	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("failed logins = %v, want %v", got, before+1)
	}
}

func TestRecorder_SearchCompleted(t *testing.T) {
	Recorder{}.SearchCompleted(time.Millisecond, nil)
	Recorder{}.SearchCompleted(time.Millisecond, errors.New("boom"))

	if got := testutil.CollectAndCount(searchDuration); got != 2 {
		t.Errorf("search series = %d", got)
	}
}
