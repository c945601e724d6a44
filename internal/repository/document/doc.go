// Package document manages SSM package documents.
//
// Store is the narrow set of remote operations the publisher needs. SSMStore
// implements it on top of the AWS Systems Manager API; tests substitute an
// in-memory implementation.
package document
