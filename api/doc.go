// Package api is the HTTP navigation surface of the bequest service. It
// drives allocation workflows, will submissions, document pinning,
// notifications and disbursement events through an engine.Engine and
// renders their errors:
//
//   - 400 for malformed requests
//   - 422 for invalid steps, unreconciled shares, bad step counts and
//     disbursement events that cannot be rendered, with fieldErrors or
//     actualTotal in the body
//   - 409 for stepping back from the first step (with "exit": true) and
//     for closed sessions
//   - 404 for unknown sessions and submissions
//   - 502 for ledger, pinning and mail failures
//   - 503 when the collaborator an operation needs is not configured
package api
