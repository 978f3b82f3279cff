// Package people implements account management for the catalog: registration,
// profile edits, password changes, role grants and deletion.
//
// Password changes and deletes expire the affected sessions synchronously
// through iam.InvalidationService. Role changes only bump the identity
// version; live sessions pick up the new role set through the consistency
// filter on their next request.
package people
