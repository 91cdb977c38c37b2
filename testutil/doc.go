// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

/*
Package testutil provides shared helpers for flowbridge tests.

Context helpers (TestContext, TestContextWithTimeout, CancelledContext)
register cleanup automatically so tests never leak. WaitForRun blocks on
a run's completion with a test-friendly timeout, and Eventually polls a
condition until it holds.

The mocks subpackage holds scripted fakes for the external boundaries:
a bridge adapter whose outcomes are queued per call, and a recording
notifier.
*/
package testutil
