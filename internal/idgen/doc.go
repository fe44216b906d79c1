// Package idgen centralises correlation-id generation so that every pending
// approval and message gets a unique, stubbable identifier.
package idgen
