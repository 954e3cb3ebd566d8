// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsEnabled(t *testing.T) {
	// Metrics should be enabled by default
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled by default")
	}

	Disable()
	if IsEnabled() {
		t.Error("Expected metrics to be disabled after Disable()")
	}

	Enable()
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled after Enable()")
	}
}

func TestRecordCeremony(t *testing.T) {
	Enable()

	CeremoniesTotal.Reset()
	CeremonyDuration.Reset()

	// Record a successful registration
	RecordCeremony("registration", 50*time.Millisecond, nil)

	count := testutil.CollectAndCount(CeremoniesTotal)
	if count != 1 {
		t.Errorf("Expected 1 ceremony recorded, got %d", count)
	}

	histCount := testutil.CollectAndCount(CeremonyDuration)
	if histCount != 1 {
		t.Errorf("Expected 1 histogram sample, got %d", histCount)
	}

	// Record a failed authentication
	RecordCeremony("authentication", 10*time.Millisecond, errors.New("verification failed"))

	count = testutil.CollectAndCount(CeremoniesTotal)
	if count != 2 {
		t.Errorf("Expected 2 ceremonies recorded, got %d", count)
	}

	errorCount := testutil.ToFloat64(CeremoniesTotal.WithLabelValues("authentication", StatusError))
	if errorCount != 1 {
		t.Errorf("Expected 1 authentication error, got %f", errorCount)
	}
}

func TestRecordCeremonyWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()

	CeremoniesTotal.Reset()

	RecordCeremony("registration", 50*time.Millisecond, nil)

	count := testutil.CollectAndCount(CeremoniesTotal)
	if count != 0 {
		t.Errorf("Expected 0 ceremonies when disabled, got %d", count)
	}
}

func TestRecordChallengeIssued(t *testing.T) {
	Enable()

	ChallengesIssuedTotal.Reset()

	RecordChallengeIssued("registration")
	RecordChallengeIssued("authentication")
	RecordChallengeIssued("authentication")

	authCount := testutil.ToFloat64(ChallengesIssuedTotal.WithLabelValues("authentication"))
	if authCount != 2 {
		t.Errorf("Expected 2 authentication challenges, got %f", authCount)
	}
}

func TestRecordCloneWarning(t *testing.T) {
	Enable()

	before := testutil.ToFloat64(CloneWarningsTotal)
	RecordCloneWarning()

	after := testutil.ToFloat64(CloneWarningsTotal)
	if after != before+1 {
		t.Errorf("Expected clone warning counter to increment, got %f -> %f", before, after)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	Enable()

	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "200", 0.05)

	count := testutil.CollectAndCount(HTTPRequestsTotal)
	if count != 1 {
		t.Errorf("Expected 1 HTTP request recorded, got %d", count)
	}
}
