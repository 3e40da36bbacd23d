// Package messenger provides the local messaging collaborators used by the
// command line front end: Console prints every private message, Outbox
// files them into per-participant inbox directories.
package messenger
