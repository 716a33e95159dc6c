package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const pythonTrace = `Traceback (most recent call last):
  File "/app/handlers/orders.py", line 42, in create_order
    total = price / quantity
  File "/app/billing/math.py", line 7, in divide
    return a / b
ZeroDivisionError: division by zero`

const nodeTrace = `TypeError: Cannot read properties of undefined (reading 'id')
    at resolveUser (/srv/api/users.js:88:17)
    at processTicksAndRejections (node:internal/process/task_queues:95:5)
    at async handler (/srv/api/router.js:31:9)`

const javaTrace = `java.lang.NullPointerException: user is null
	at com.acme.api.UserService.load(UserService.java:57)
	at com.acme.api.UserController.get(UserController.java:24)
	at jdk.internal.reflect.DirectMethodHandleAccessor.invoke(DirectMethodHandleAccessor.java:103)`

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("ZeroDivisionError", pythonTrace, "python")
	b := Fingerprint("ZeroDivisionError", pythonTrace, "python")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", a)
}

func TestFingerprintVariesByInputs(t *testing.T) {
	base := Fingerprint("ZeroDivisionError", pythonTrace, "python")
	assert.NotEqual(t, base, Fingerprint("ValueError", pythonTrace, "python"))
	assert.NotEqual(t, base, Fingerprint("ZeroDivisionError", pythonTrace, "node"))
	assert.NotEqual(t, base, Fingerprint("ZeroDivisionError", "", "python"))
}

func TestFingerprintIgnoresDeepFrames(t *testing.T) {
	deep := pythonTrace + `
  File "/app/vendor/retry.py", line 99, in retry
    return fn()`
	// Only the top frames participate, so trailing frames beyond the
	// cutoff change nothing once three are present.
	withExtra := pythonTrace + `
  File "/app/extra/one.py", line 1, in f
    pass
  File "/app/extra/two.py", line 2, in g
    pass`
	assert.Equal(t,
		Fingerprint("E", deep, "python"),
		Fingerprint("E", withExtra, "python"))
}

func TestTopFramesPython(t *testing.T) {
	frames := topFrames(pythonTrace, "python", 3)
	assert.Equal(t, []string{
		"/app/handlers/orders.py:42",
		"/app/billing/math.py:7",
	}, frames)
}

func TestTopFramesNode(t *testing.T) {
	frames := topFrames(nodeTrace, "node", 3)
	assert.Equal(t, []string{
		"/srv/api/users.js:88",
		"node:internal/process/task_queues:95",
		"/srv/api/router.js:31",
	}, frames)
}

func TestTopFramesJava(t *testing.T) {
	frames := topFrames(javaTrace, "java", 3)
	assert.Equal(t, []string{
		"UserService.java:57",
		"UserController.java:24",
		"DirectMethodHandleAccessor.java:103",
	}, frames)
}

func TestTopFramesUnknownPlatformFallsThrough(t *testing.T) {
	frames := topFrames(javaTrace, "", 3)
	assert.Len(t, frames, 3)
	assert.Equal(t, "UserService.java:57", frames[0])
}

func TestTopFramesEmptyTrace(t *testing.T) {
	assert.Nil(t, topFrames("", "python", 3))
	assert.Nil(t, topFrames("no frames here", "python", 3))
}
