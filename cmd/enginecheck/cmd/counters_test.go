/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/stats"
)

func captureStdout(t *testing.T, f func() error) string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	ferr := f()

	w.Close()
	os.Stdout = oldStdout
	require.NoError(t, ferr)
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestPrintCountersTable(t *testing.T) {
	counters := stats.Counters{
		"ptp.engine.port.state":            9,
		"ptp.engine.portstats.rx.announce": 4656,
	}
	output := captureStdout(t, func() error {
		return printCounters(counters, false)
	})
	require.True(t, strings.Contains(output, "COUNTER"), "got:\n%s", output)
	require.True(t, strings.Contains(output, "ptp.engine.port.state"), "got:\n%s", output)
	require.True(t, strings.Contains(output, "4656"), "got:\n%s", output)
}

func TestPrintCountersJSON(t *testing.T) {
	counters := stats.Counters{
		"ptp.engine.port.state": 9,
	}
	output := captureStdout(t, func() error {
		return printCounters(counters, true)
	})
	require.Equal(t, `{"ptp.engine.port.state":9}`, strings.TrimSpace(output))
}
