// Package notify carries control messages between the cache worker and
// active application instances: update-availability broadcasts out,
// skip-waiting and check-for-update requests in.
package notify
