// Package pool provides the bounded fan-out primitive shared by every
// pipeline stage that calls an external collaborator per item.
package pool
