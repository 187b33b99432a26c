package redis

// Redis key naming conventions for bequest data.
// All keys are prefixed with "bequest:" to avoid collisions.

const keyPrefix = "bequest:"

// ── Session keys ──

// sessionKey returns the key for a session state: bequest:session:{id}
func sessionKey(id string) string { return keyPrefix + "session:" + id }

// sessionIDsKey is the Set tracking session IDs for enumeration. Members
// whose hash has expired are pruned when listed.
const sessionIDsKey = keyPrefix + "session_ids"

// stepsKey returns the Hash of step records for a session, keyed by
// index: bequest:steps:{sessionID}
func stepsKey(sessionID string) string { return keyPrefix + "steps:" + sessionID }

// ── Submission keys ──

// submissionKey returns the key for a submission: bequest:submission:{id}
func submissionKey(id string) string { return keyPrefix + "submission:" + id }

// submissionIDsKey is the Set tracking all submission IDs for enumeration.
const submissionIDsKey = keyPrefix + "submission_ids"

// ── Event keys ──

// eventKey returns the key for an event entity: bequest:event:{id}
func eventKey(id string) string { return keyPrefix + "event:" + id }

// eventStreamKey returns the Stream key for an event name: bequest:events:{name}
func eventStreamKey(name string) string { return keyPrefix + "events:" + name }
