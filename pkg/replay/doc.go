// Package replay prevents a one-time code from being accepted twice.
//
// A TOTP code stays valid for the whole verification window, so an observer who sees a code
// being typed could reuse it seconds later. The Guard remembers the last accepted time-step per
// key, typically account id plus secret fingerprint, and refuses any step at or before it.
// Entries only need to live as long as a code can be valid: (2*window+1)*period.
//
//	fresh, err := guard.Use(ctx, key, step, 90*time.Second)
//	if !fresh {
//	    // already used
//	}
package replay
