// Package services holds the use cases behind the inspection shell: drafting
// a new record, saving it, and listing or removing saved ones.
package services
