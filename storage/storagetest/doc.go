// Package storagetest provides a behavioral test suite that every
// storage.Adapter implementation must pass.
package storagetest
