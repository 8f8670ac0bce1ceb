// Package allowlist reconciles a desired set of end devices against the
// allowlist and the active device sessions of a Conduit gateway.
//
// Every operation re-reads the remote state it needs, applies its changes with
// whole-document PUTs and per-device DELETEs, and finishes with a commit. The
// gateway offers no conditional update, so operations are not atomic: the first
// failing call aborts the operation and the error says which phase failed.
// Nothing is rolled back and nothing is retried here.
//
// Typical use:
//
//	r := allowlist.NewReconciler(client)
//	if err := r.AddOrUpdate(devices); err != nil {
//	    return err
//	}
package allowlist
